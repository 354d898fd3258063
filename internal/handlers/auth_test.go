package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"condensing_unit/internal/service"
)

func postJSON(t *testing.T, s *service.Service, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter(s).ServeHTTP(w, req)
	return w
}

func TestAuthHandlers_SignUpAndSignIn(t *testing.T) {
	auth := &mockAuth{signUpID: 42, token: "tok123"}
	s := &service.Service{Authorization: auth}

	w := postJSON(t, s, "/auth/sign-up", `{"username":"u","password":"p"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-up status=%d, body=%s", w.Code, w.Body.String())
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if int(m["id"].(float64)) != 42 {
		t.Fatalf("expected id=42, got %v", m["id"])
	}

	w = postJSON(t, s, "/auth/sign-in", `{"username":"u","password":"p"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-in status=%d, body=%s", w.Code, w.Body.String())
	}
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m["token"] != "tok123" {
		t.Fatalf("expected token tok123, got %v", m["token"])
	}
}

func TestAuthHandlers_Errors(t *testing.T) {
	cases := []struct {
		name string
		auth *mockAuth
		path string
		body string
		want int
	}{
		{"sign-in bad body", &mockAuth{}, "/auth/sign-in", `{"username":1}`, http.StatusBadRequest},
		{"sign-up missing password", &mockAuth{}, "/auth/sign-up", `{"username":"u"}`, http.StatusBadRequest},
		{"sign-up duplicate", &mockAuth{signUpErr: errors.New("UNIQUE constraint failed")}, "/auth/sign-up", `{"username":"u","password":"p"}`, http.StatusBadRequest},
		{"sign-in wrong password", &mockAuth{tokenErr: service.ErrInvalidPassword}, "/auth/sign-in", `{"username":"u","password":"p"}`, http.StatusUnauthorized},
		{"sign-in unknown user", &mockAuth{tokenErr: service.ErrUserNotFound}, "/auth/sign-in", `{"username":"u","password":"p"}`, http.StatusUnauthorized},
		{"sign-in without signing key", &mockAuth{tokenErr: service.ErrNoSigningKey}, "/auth/sign-in", `{"username":"u","password":"p"}`, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, &service.Service{Authorization: tc.auth}, tc.path, tc.body)
			if w.Code != tc.want {
				t.Fatalf("status=%d, want %d; body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

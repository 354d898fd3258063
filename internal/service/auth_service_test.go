package service

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"condensing_unit/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var testAuthCfg = AuthConfig{SigningKey: "test-key", TokenTTL: time.Hour}

// mockAuthRepo is a lightweight in-test mock for repository.Authorization.
type mockAuthRepo struct {
	CreateFn        func(username, hash string) (int, error)
	GetByUsernameFn func(username string) (*models.User, error)

	createHashes []string
	getCalls     []string
}

func (m *mockAuthRepo) Create(username, hash string) (int, error) {
	m.createHashes = append(m.createHashes, hash)
	return m.CreateFn(username, hash)
}

func (m *mockAuthRepo) GetByUsername(username string) (*models.User, error) {
	m.getCalls = append(m.getCalls, username)
	return m.GetByUsernameFn(username)
}

func userWithPassword(t *testing.T, id int, password string) *models.User {
	t.Helper()
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	return &models.User{ID: id, Username: "tech", PasswordHash: hash}
}

func signedClaims(t *testing.T, method jwt.SigningMethod, key any, userID int, exp time.Time) string {
	t.Helper()
	tk := jwt.NewWithClaims(method, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
		},
		UserID: userID,
	})
	s, err := tk.SignedString(key)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func TestAuthService_SignUp_HashesPassword(t *testing.T) {
	repo := &mockAuthRepo{CreateFn: func(string, string) (int, error) { return 42, nil }}
	svc := NewAuthService(repo, testAuthCfg)

	id, err := svc.SignUp("tech", "s3cr3t")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if id != 42 {
		t.Fatalf("id = %d, want 42", id)
	}
	if len(repo.createHashes) != 1 {
		t.Fatalf("expected 1 Create call, got %d", len(repo.createHashes))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(repo.createHashes[0]), []byte("s3cr3t")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestAuthService_SignUp_RejectsBlankInput(t *testing.T) {
	repo := &mockAuthRepo{CreateFn: func(string, string) (int, error) {
		t.Fatal("Create must not be called")
		return 0, nil
	}}
	svc := NewAuthService(repo, testAuthCfg)

	if _, err := svc.SignUp("tech", "   "); err == nil {
		t.Fatal("expected error for blank password")
	}
	if _, err := svc.SignUp(" ", "pw"); err == nil {
		t.Fatal("expected error for blank username")
	}
}

func TestAuthService_SignUp_RepoError(t *testing.T) {
	repo := &mockAuthRepo{CreateFn: func(string, string) (int, error) { return 0, errors.New("db down") }}
	if _, err := NewAuthService(repo, testAuthCfg).SignUp("tech", "pw"); err == nil {
		t.Fatal("expected repo error")
	}
}

func TestAuthService_GenerateToken_RoundTrip(t *testing.T) {
	user := userWithPassword(t, 7, "letmein")
	repo := &mockAuthRepo{GetByUsernameFn: func(string) (*models.User, error) { return user, nil }}
	svc := NewAuthService(repo, testAuthCfg)

	token, err := svc.GenerateToken("tech", "letmein")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	uid, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if uid != 7 {
		t.Fatalf("uid = %d, want 7", uid)
	}
}

func TestAuthService_GenerateToken_Errors(t *testing.T) {
	user := userWithPassword(t, 1, "correct")
	tests := []struct {
		name    string
		cfg     AuthConfig
		lookup  func(string) (*models.User, error)
		pw      string
		wantErr error
	}{
		{"unknown user", testAuthCfg, func(string) (*models.User, error) { return nil, nil }, "pw", ErrUserNotFound},
		{"wrong password", testAuthCfg, func(string) (*models.User, error) { return user, nil }, "wrong", ErrInvalidPassword},
		{"no signing key", AuthConfig{}, func(string) (*models.User, error) { return user, nil }, "correct", ErrNoSigningKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(&mockAuthRepo{GetByUsernameFn: tt.lookup}, tt.cfg)
			if _, err := svc.GenerateToken("tech", tt.pw); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAuthService_ParseToken_Rejects(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey: %v", err)
	}
	now := time.Now()
	tokens := map[string]string{
		"malformed":    "not-a-jwt",
		"other key":    signedClaims(t, jwt.SigningMethodHS256, []byte("other"), 5, now.Add(time.Hour)),
		"expired":      signedClaims(t, jwt.SigningMethodHS256, []byte(testAuthCfg.SigningKey), 5, now.Add(-time.Hour)),
		"rsa signed":   signedClaims(t, jwt.SigningMethodRS256, rsaKey, 5, now.Add(time.Hour)),
		"empty string": "",
		"truncated":    signedClaims(t, jwt.SigningMethodHS256, []byte(testAuthCfg.SigningKey), 5, now.Add(time.Hour))[:20],
	}
	svc := NewAuthService(&mockAuthRepo{}, testAuthCfg)
	for name, tok := range tokens {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.ParseToken(tok); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestAuthService_TokenTTLFromConfig(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, AuthConfig{SigningKey: "k", TokenTTL: 5 * time.Minute})
	issued := time.Now()
	tok, err := svc.issueToken(3, issued)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 5*time.Minute {
		t.Fatalf("ttl = %v, want 5m", got)
	}
}

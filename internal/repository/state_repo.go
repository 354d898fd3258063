package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"condensing_unit/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	unitStateRowID = 1

	upsertStateSQL = `
		INSERT INTO unit_state (id, cycle, compressor_state, compressor_on, run_s, stop_s, safety_s,
			fan_demand, demand_mode, oat_failed, fan_groups, fans, head_pressure, oat, sat_temp, errors, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cycle=excluded.cycle,
			compressor_state=excluded.compressor_state,
			compressor_on=excluded.compressor_on,
			run_s=excluded.run_s,
			stop_s=excluded.stop_s,
			safety_s=excluded.safety_s,
			fan_demand=excluded.fan_demand,
			demand_mode=excluded.demand_mode,
			oat_failed=excluded.oat_failed,
			fan_groups=excluded.fan_groups,
			fans=excluded.fans,
			head_pressure=excluded.head_pressure,
			oat=excluded.oat,
			sat_temp=excluded.sat_temp,
			errors=excluded.errors,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, cycle, compressor_state, compressor_on, run_s, stop_s, safety_s,
			fan_demand, demand_mode, oat_failed, fan_groups, fans, head_pressure, oat, sat_temp, errors, updated_at
		FROM unit_state WHERE id=?
	`
)

// marshalJSON stores slices as JSON text; nil becomes "[]".
func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

func unmarshalJSON(s string, dst any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), dst)
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// Save upserts the single unit_state row.
func (r *StateSQLite) Save(ctx context.Context, state models.UnitState) error {
	groups, err := marshalJSON(state.FanGroups)
	if err != nil {
		return fmt.Errorf("encode fan groups: %w", err)
	}
	fans, err := marshalJSON(state.Fans)
	if err != nil {
		return fmt.Errorf("encode fans: %w", err)
	}
	codes, err := marshalJSON(state.ErrorCodes)
	if err != nil {
		return fmt.Errorf("encode error codes: %w", err)
	}

	ts := state.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err = r.db.ExecContext(ctx, upsertStateSQL,
		unitStateRowID,
		int64(state.Cycle),
		state.CompressorState,
		state.CompressorOn,
		state.RunTimerSec,
		state.StopTimerSec,
		state.SafetyTimerSec,
		state.FanDemand,
		state.DemandMode,
		state.OATSensorFailed,
		groups,
		fans,
		nullFloat(state.HeadPressure),
		nullFloat(state.OAT),
		nullFloat(state.SaturatedTemp),
		codes,
		ts,
	)
	if err != nil {
		return fmt.Errorf("save unit state: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or a zero UnitState when nothing was saved yet.
func (r *StateSQLite) Load(ctx context.Context) (models.UnitState, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, unitStateRowID)

	var (
		s                   models.UnitState
		cycle               int64
		groups, fans, codes string
		head, oat, satTemp  sql.NullFloat64
	)
	if err := row.Scan(
		&s.ID,
		&cycle,
		&s.CompressorState,
		&s.CompressorOn,
		&s.RunTimerSec,
		&s.StopTimerSec,
		&s.SafetyTimerSec,
		&s.FanDemand,
		&s.DemandMode,
		&s.OATSensorFailed,
		&groups,
		&fans,
		&head,
		&oat,
		&satTemp,
		&codes,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UnitState{}, nil
		}
		return models.UnitState{}, fmt.Errorf("load unit state: %w", err)
	}

	s.Cycle = uint64(cycle)
	if err := unmarshalJSON(groups, &s.FanGroups); err != nil {
		return models.UnitState{}, fmt.Errorf("decode fan groups: %w", err)
	}
	if err := unmarshalJSON(fans, &s.Fans); err != nil {
		return models.UnitState{}, fmt.Errorf("decode fans: %w", err)
	}
	if err := unmarshalJSON(codes, &s.ErrorCodes); err != nil {
		return models.UnitState{}, fmt.Errorf("decode error codes: %w", err)
	}
	s.HeadPressure = floatPtr(head)
	s.OAT = floatPtr(oat)
	s.SaturatedTemp = floatPtr(satTemp)
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

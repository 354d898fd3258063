// Package config loads daemon settings from configs/config.yml and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"condensing_unit/internal/control"

	"github.com/spf13/viper"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

const envPrefix = "CONDENSER"

// Config is the full daemon configuration.
type Config struct {
	Port    string        `mapstructure:"port"`
	DB      DBConfig      `mapstructure:"db"`
	Log     LogConfig     `mapstructure:"log"`
	Auth    AuthConfig    `mapstructure:"auth"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	Control ControlConfig `mapstructure:"control"`
	Plant   PlantConfig   `mapstructure:"plant"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// MQTTConfig configures telemetry. An empty broker disables publishing.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
}

// ControlConfig mirrors control.Config in configuration units.
type ControlConfig struct {
	Tick            time.Duration `mapstructure:"tick"`
	MinRunTime      time.Duration `mapstructure:"min_run_time"`
	MinStopTime     time.Duration `mapstructure:"min_stop_time"`
	SafetyTimer     time.Duration `mapstructure:"safety_timer"`
	MaxRuntime      time.Duration `mapstructure:"max_runtime"`
	MinOffTime      time.Duration `mapstructure:"min_off_time"`
	MinCondPressure float64       `mapstructure:"min_cond_pressure"`
	MaxCondPressure float64       `mapstructure:"max_cond_pressure"`
	SensorBand      float64       `mapstructure:"sensor_band"`
}

// PlantConfig drives the built-in plant simulator's digital inputs.
type PlantConfig struct {
	Enable        bool    `mapstructure:"enable"`
	AmbientOAT    float64 `mapstructure:"ambient_oat"`
	OATSwing      float64 `mapstructure:"oat_swing"`
	StartPressure float64 `mapstructure:"start_pressure"`
}

// Control converts the settings into the controller's own configuration.
func (c ControlConfig) Control() control.Config {
	return control.Config{
		Tick: c.Tick,
		Compressor: control.CompressorConfig{
			MinRunTime:  c.MinRunTime,
			MinStopTime: c.MinStopTime,
			SafetyTimer: c.SafetyTimer,
		},
		Fans: control.FanConfig{
			MinCondPressure: c.MinCondPressure,
			MaxCondPressure: c.MaxCondPressure,
			SensorBand:      c.SensorBand,
			MaxRuntime:      c.MaxRuntime,
			MinOffTime:      c.MinOffTime,
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "condenser.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "condensing-unit")
	v.SetDefault("mqtt.topic", "plant/condensing-unit")

	v.SetDefault("control.tick", control.DefaultTick)
	v.SetDefault("control.min_run_time", 3*time.Minute)
	v.SetDefault("control.min_stop_time", 5*time.Minute)
	v.SetDefault("control.safety_timer", 10*time.Minute)
	v.SetDefault("control.max_runtime", time.Duration(0))
	v.SetDefault("control.min_off_time", time.Duration(0))
	v.SetDefault("control.min_cond_pressure", 150.0)
	v.SetDefault("control.max_cond_pressure", 350.0)
	v.SetDefault("control.sensor_band", 1.0)

	v.SetDefault("plant.enable", true)
	v.SetDefault("plant.ambient_oat", 75.0)
	v.SetDefault("plant.oat_swing", 10.0)
	v.SetDefault("plant.start_pressure", 180.0)
}

// Load reads config.yml from the given directories (the first hit wins),
// applies CONDENSER_* environment overrides and validates the result.
// A missing file is not an error; defaults apply.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the controller cannot run with.
func (c Config) Validate() error {
	ctl := c.Control
	switch {
	case ctl.Tick <= 0:
		return fmt.Errorf("%w: control.tick must be positive", ErrInvalidConfig)
	case ctl.MinRunTime < 0 || ctl.MinStopTime < 0 || ctl.SafetyTimer < 0:
		return fmt.Errorf("%w: compressor timers must not be negative", ErrInvalidConfig)
	case ctl.MaxRuntime < 0 || ctl.MinOffTime < 0:
		return fmt.Errorf("%w: fan wear timers must not be negative", ErrInvalidConfig)
	case ctl.MaxCondPressure <= ctl.MinCondPressure:
		return fmt.Errorf("%w: control.max_cond_pressure (%.1f) must exceed control.min_cond_pressure (%.1f)",
			ErrInvalidConfig, ctl.MaxCondPressure, ctl.MinCondPressure)
	case ctl.SensorBand < 0:
		return fmt.Errorf("%w: control.sensor_band must not be negative", ErrInvalidConfig)
	case c.Auth.TokenTTL <= 0:
		return fmt.Errorf("%w: auth.token_ttl must be positive", ErrInvalidConfig)
	}
	return nil
}

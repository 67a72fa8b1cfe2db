package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"pelco-remote/internal/pelco"
	"pelco-remote/internal/serialport"
)

// SerialConfig selects the RS-485 line.
type SerialConfig struct {
	Port        string        `mapstructure:"port"`
	Product     string        `mapstructure:"product"`
	Baud        int           `mapstructure:"baud"`
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
}

// CameraConfig describes the device on the line.
type CameraConfig struct {
	Address             int    `mapstructure:"address"`
	Model               string `mapstructure:"model"`
	VerifyReplyChecksum bool   `mapstructure:"verifyReplyChecksum"`
	ConfirmCommands     bool   `mapstructure:"confirmCommands"`
}

// RangeConfig is a raw input interval.
type RangeConfig struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// ControlConfig tunes the analog control loop.
type ControlConfig struct {
	DeadZone      float64       `mapstructure:"deadZone"`
	GuardInterval time.Duration `mapstructure:"guardInterval"`
	StickRange    RangeConfig   `mapstructure:"stickRange"`
	TriggerRange  RangeConfig   `mapstructure:"triggerRange"`
	InvertTilt    bool          `mapstructure:"invertTilt"`
	MenuPreset    int           `mapstructure:"menuPreset"`
	MessageRate   float64       `mapstructure:"messageRate"`
	MessageBurst  int           `mapstructure:"messageBurst"`
}

// HTTPConfig is the web server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// VideoConfig is the camera video relay.
type VideoConfig struct {
	RTSPURL    string   `mapstructure:"rtspURL"`
	ICEServers []string `mapstructure:"iceServers"`
	// ICEIPs switches WebRTC to ICE-lite with these public addresses.
	ICEIPs []string `mapstructure:"iceIPs"`
}

// LumberjackConfig is the rolling log file. An empty Filename logs to stdout
// only.
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// Config is the top-level configuration.
type Config struct {
	Serial  SerialConfig  `mapstructure:"serial"`
	Camera  CameraConfig  `mapstructure:"camera"`
	Control ControlConfig `mapstructure:"control"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Video   VideoConfig   `mapstructure:"video"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// Load reads path (YAML, TOML or JSON), then PELCO_ prefixed environment
// variables, after loading an optional .env file. With an empty path
// PELCO_CONFIG is used, falling back to configs/pelco.yaml when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if path == "" {
		path = os.Getenv("PELCO_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("pelco")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix("PELCO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// No default, so AutomaticEnv alone would not surface it to Unmarshal.
	if err := v.BindEnv("serial.readTimeout"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("serial.product", serialport.DefaultProduct)
	v.SetDefault("serial.baud", 9600)

	v.SetDefault("camera.address", 1)
	v.SetDefault("camera.model", "standard")
	v.SetDefault("camera.verifyReplyChecksum", true)
	v.SetDefault("camera.confirmCommands", false)

	v.SetDefault("control.deadZone", 0.17)
	v.SetDefault("control.guardInterval", "300ms")
	v.SetDefault("control.stickRange.min", -1.0)
	v.SetDefault("control.stickRange.max", 1.0)
	v.SetDefault("control.triggerRange.min", 0.0)
	v.SetDefault("control.triggerRange.max", 1.0)
	v.SetDefault("control.invertTilt", false)
	v.SetDefault("control.menuPreset", 1)
	v.SetDefault("control.messageRate", 30.0)
	v.SetDefault("control.messageBurst", 10)

	v.SetDefault("http.addr", ":8080")

	v.SetDefault("video.rtspURL", "")
	v.SetDefault("video.iceServers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("video.iceIPs", []string{})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks the settings the rest of the program relies on.
func (c *Config) Validate() error {
	if c.Serial.ReadTimeout <= 0 {
		return errors.New("config: serial.readTimeout must be set to a positive duration")
	}
	if !serialport.ValidBaud(c.Serial.Baud) {
		return fmt.Errorf("config: serial.baud %d not one of %v", c.Serial.Baud, serialport.Bauds)
	}
	if err := pelco.ValidateRange(c.Camera.Address, pelco.FieldAddress); err != nil {
		return fmt.Errorf("config: camera.address: %w", err)
	}
	if _, err := c.Camera.DeviceModel(); err != nil {
		return fmt.Errorf("config: camera.model: %w", err)
	}
	if c.Control.DeadZone < 0 || c.Control.DeadZone >= 1 {
		return fmt.Errorf("config: control.deadZone %.2f not in [0, 1)", c.Control.DeadZone)
	}
	if c.Control.GuardInterval <= 0 {
		return errors.New("config: control.guardInterval must be positive")
	}
	if c.Control.StickRange.Max <= c.Control.StickRange.Min {
		return errors.New("config: control.stickRange max must exceed min")
	}
	if c.Control.TriggerRange.Max <= c.Control.TriggerRange.Min {
		return errors.New("config: control.triggerRange max must exceed min")
	}
	if err := pelco.ValidateRange(c.Control.MenuPreset, pelco.FieldPresetID); err != nil {
		return fmt.Errorf("config: control.menuPreset: %w", err)
	}
	return nil
}

// DeviceModel parses Model.
func (c CameraConfig) DeviceModel() (pelco.Model, error) {
	return pelco.ParseModel(c.Model)
}

package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/rs/zerolog"

	"github.com/thatsimonsguy/senseo-controller/internal/model"
	"github.com/thatsimonsguy/senseo-controller/internal/senseo"
)

const DefaultConfigFile = "~/.senseo-api/senseo_config.json"

type GPIO struct {
	PowerButton  *int `json:"power_button"`
	OneMugButton *int `json:"1_mug_button"`
	TwoMugButton *int `json:"2_mug_button"`
	LED          *int `json:"led"`
}

type Config struct {
	ConfigFile string
	DBPath     string
	LogFile    string
	Addr       string
	LogLevel   zerolog.Level

	GPIO     GPIO   `json:"gpio"`
	Driver   string `json:"driver"`
	GPIOChip string `json:"gpio_chip"`
	SafeMode bool   `json:"safe_mode"`

	PollAttempts           int `json:"poll_attempts"`
	PollIntervalMs         int `json:"poll_interval_ms"`
	PressMs                int `json:"press_ms"`
	MonitorIntervalSeconds int `json:"monitor_interval_seconds"`

	EnableDatadog bool     `json:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace"`
	DDTags        []string `json:"dd_tags"`

	MQTTBroker      string `json:"mqtt_broker"`
	MQTTClientID    string `json:"mqtt_client_id"`
	MQTTTopicPrefix string `json:"mqtt_topic_prefix"`

	NtfyTopic string `json:"ntfy_topic"`

	BootScriptFilePath string `json:"boot_script_file_path"`
	OSServicePath      string `json:"os_service_path"`
	MainServicePath    string `json:"main_service_path"`
	ServiceUser        string `json:"service_user"`
	ServiceBinary      string `json:"service_binary"`
}

// Load parses command line flags and reads the config file they point at.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	var logLevel string

	fs := flag.NewFlagSet("senseo-api", flag.ContinueOnError)
	fs.StringVar(&cfg.ConfigFile, "config-file", DefaultConfigFile, "Path to the pin configuration file")
	fs.StringVar(&cfg.DBPath, "db", "data/senseo.db", "Path to the SQLite pin registry")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Append JSON logs to this file instead of the console")
	fs.StringVar(&cfg.Addr, "addr", "0.0.0.0:5000", "HTTP listen address")
	fs.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.LogLevel = parseLogLevel(logLevel)

	if err := cfg.readFile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a config file without touching flags.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{ConfigFile: path, LogLevel: zerolog.InfoLevel}
	if err := cfg.readFile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) readFile() error {
	path, err := ExpandHome(cfg.ConfigFile)
	if err != nil {
		return err
	}
	cfg.ConfigFile = path

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg.validate()
}

func (cfg *Config) applyDefaults() {
	if cfg.Driver == "" {
		cfg.Driver = "pinctrl"
	}
	if cfg.GPIOChip == "" {
		cfg.GPIOChip = "gpiochip0"
	}
	if cfg.PollAttempts == 0 {
		cfg.PollAttempts = senseo.DefaultPollAttempts
	}
	if cfg.PollIntervalMs == 0 {
		cfg.PollIntervalMs = int(senseo.DefaultPollInterval.Milliseconds())
	}
	if cfg.PressMs == 0 {
		cfg.PressMs = int(senseo.DefaultPressDuration.Milliseconds())
	}
	if cfg.DDAgentAddr == "" {
		cfg.DDAgentAddr = "127.0.0.1:8125"
	}
	if cfg.DDNamespace == "" {
		cfg.DDNamespace = "senseo."
	}
	if cfg.MQTTClientID == "" {
		cfg.MQTTClientID = "senseo-api"
	}
	if cfg.MQTTTopicPrefix == "" {
		cfg.MQTTTopicPrefix = "senseo"
	}
	if cfg.BootScriptFilePath == "" {
		cfg.BootScriptFilePath = "/usr/local/bin/senseo-gpio-init.sh"
	}
	if cfg.OSServicePath == "" {
		cfg.OSServicePath = "/etc/systemd/system/senseo-gpio-init.service"
	}
	if cfg.MainServicePath == "" {
		cfg.MainServicePath = "/etc/systemd/system/senseo-api.service"
	}
	if cfg.ServiceUser == "" {
		cfg.ServiceUser = "pi"
	}
	if cfg.ServiceBinary == "" {
		cfg.ServiceBinary = "/usr/local/bin/senseo-api"
	}
}

// ExpandHome replaces a leading "~/" with the current user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) validate() error {
	var missingFields []string

	v := reflect.ValueOf(cfg.GPIO)
	t := reflect.TypeOf(cfg.GPIO)

	for i := 0; i < v.NumField(); i++ {
		if v.Field(i).IsNil() {
			missingFields = append(missingFields, "gpio."+t.Field(i).Tag.Get("json"))
		}
	}

	if len(missingFields) > 0 {
		return &senseo.ConfigurationError{Reason: "missing required GPIO config fields: " + strings.Join(missingFields, ", ")}
	}
	if cfg.PollAttempts < 1 {
		return &senseo.ConfigurationError{Reason: fmt.Sprintf("poll_attempts must be at least 1, got %d", cfg.PollAttempts)}
	}
	if cfg.PollIntervalMs < 0 {
		return &senseo.ConfigurationError{Reason: fmt.Sprintf("poll_interval_ms must not be negative, got %d", cfg.PollIntervalMs)}
	}
	if cfg.PressMs < 1 {
		return &senseo.ConfigurationError{Reason: fmt.Sprintf("press_ms must be at least 1, got %d", cfg.PressMs)}
	}
	return senseo.ValidatePins(cfg.Pins())
}

// Pins returns the pin mapping. Missing entries read as zero; call only on a
// validated config.
func (cfg *Config) Pins() model.PinConfig {
	deref := func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	}
	return model.PinConfig{
		PowerButton:  deref(cfg.GPIO.PowerButton),
		OneMugButton: deref(cfg.GPIO.OneMugButton),
		TwoMugButton: deref(cfg.GPIO.TwoMugButton),
		LED:          deref(cfg.GPIO.LED),
	}
}

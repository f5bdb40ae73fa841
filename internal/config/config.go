package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values.
//
// The yaml tags are the KEY=VALUE keys in lower case, so the same settings
// can be written in either format.
type Config struct {
	// MQTT
	MQTTBroker          string `yaml:"mqtt_broker"`
	MQTTClientIDGPS     string `yaml:"mqtt_client_id_gps"`
	MQTTClientIDConsole string `yaml:"mqtt_client_id_console"`
	MQTTClientIDWeb     string `yaml:"mqtt_client_id_web"`

	// Topics
	TopicGPS           string `yaml:"topic_gps"`
	TopicGPSPosition   string `yaml:"topic_gps_position"`
	TopicGPSVelocity   string `yaml:"topic_gps_velocity"`
	TopicGPSQuality    string `yaml:"topic_gps_quality"`
	TopicGPSSatellites string `yaml:"topic_gps_satellites"`
	TopicGPSLock       string `yaml:"topic_gps_lock"` // retained "true"/"false"

	// GPS receiver
	GPSSerialPort       string   `yaml:"gps_serial_port"`
	GPSBaudRate         int      `yaml:"gps_baud_rate"`
	GPSTalkerIDs        []string `yaml:"gps_talker_ids"`       // e.g. GP,GN; empty means GP,GA,GL,GN
	GPSRequireChecksum  bool     `yaml:"gps_require_checksum"` // reject sentences without *hh
	GPSReplayFile       string   `yaml:"gps_replay_file"`      // read sentences from a file instead of the serial port
	GPSReplayIntervalMs int      `yaml:"gps_replay_interval"`  // delay between replayed lines, milliseconds

	// Timing
	ConsoleLogInterval int `yaml:"console_log_interval"` // milliseconds

	// Web Server
	WebServerPort int    `yaml:"web_server_port"`
	WebStaticDir  string `yaml:"web_static_dir"`
	WebMDNSEnable bool   `yaml:"web_mdns_enable"`
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through Get().
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
// Files ending in .yaml or .yml are decoded as YAML, anything else as
// KEY=VALUE lines.
func Load(configPath string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		cfg, err = loadYAML(configPath)
	default:
		cfg, err = loadKeyValue(configPath)
	}
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadKeyValue(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return cfg, nil
}

func loadYAML(configPath string) (*Config, error) {
	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("invalid yaml config: %w", err)
	}
	cfg.GPSTalkerIDs = normalizeTalkers(cfg.GPSTalkerIDs)
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_GPS":
		c.TopicGPS = value
	case "TOPIC_GPS_POSITION":
		c.TopicGPSPosition = value
	case "TOPIC_GPS_VELOCITY":
		c.TopicGPSVelocity = value
	case "TOPIC_GPS_QUALITY":
		c.TopicGPSQuality = value
	case "TOPIC_GPS_SATELLITES":
		c.TopicGPSSatellites = value
	case "TOPIC_GPS_LOCK":
		c.TopicGPSLock = value

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate
	case "GPS_TALKER_IDS":
		c.GPSTalkerIDs = normalizeTalkers(strings.Split(value, ","))
	case "GPS_REQUIRE_CHECKSUM":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_REQUIRE_CHECKSUM %q: %w", value, err)
		}
		c.GPSRequireChecksum = b
	case "GPS_REPLAY_FILE":
		c.GPSReplayFile = value
	case "GPS_REPLAY_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_REPLAY_INTERVAL %q: %w", value, err)
		}
		c.GPSReplayIntervalMs = interval

	// Timing
	case "CONSOLE_LOG_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CONSOLE_LOG_INTERVAL %q: %w", value, err)
		}
		c.ConsoleLogInterval = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port
	case "WEB_STATIC_DIR":
		c.WebStaticDir = value
	case "WEB_MDNS_ENABLE":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_MDNS_ENABLE %q: %w", value, err)
		}
		c.WebMDNSEnable = b

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// normalizeTalkers upper-cases and drops empty entries.
func normalizeTalkers(in []string) []string {
	var out []string
	for _, t := range in {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// applyDefaults fills in optional keys.
func (c *Config) applyDefaults() {
	if c.MQTTClientIDGPS == "" {
		c.MQTTClientIDGPS = "nmea-fix-gps"
	}
	if c.MQTTClientIDConsole == "" {
		c.MQTTClientIDConsole = "nmea-fix-console"
	}
	if c.MQTTClientIDWeb == "" {
		c.MQTTClientIDWeb = "nmea-fix-web"
	}

	if c.TopicGPS == "" {
		c.TopicGPS = "nmea_fix/gps"
	}
	if c.TopicGPSPosition == "" {
		c.TopicGPSPosition = c.TopicGPS + "/position"
	}
	if c.TopicGPSVelocity == "" {
		c.TopicGPSVelocity = c.TopicGPS + "/velocity"
	}
	if c.TopicGPSQuality == "" {
		c.TopicGPSQuality = c.TopicGPS + "/quality"
	}
	if c.TopicGPSSatellites == "" {
		c.TopicGPSSatellites = c.TopicGPS + "/satellites"
	}
	if c.TopicGPSLock == "" {
		c.TopicGPSLock = c.TopicGPS + "/lock"
	}

	if c.GPSBaudRate == 0 {
		c.GPSBaudRate = 9600
	}
	if c.GPSReplayIntervalMs == 0 {
		c.GPSReplayIntervalMs = 100
	}
	if c.ConsoleLogInterval == 0 {
		c.ConsoleLogInterval = 1000
	}
	if c.WebServerPort == 0 {
		c.WebServerPort = 8080
	}
	if c.WebStaticDir == "" {
		c.WebStaticDir = "web"
	}
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.GPSSerialPort == "" && c.GPSReplayFile == "" {
		return fmt.Errorf("GPS_SERIAL_PORT or GPS_REPLAY_FILE is required")
	}
	if c.GPSBaudRate < 0 {
		return fmt.Errorf("GPS_BAUD_RATE must be positive, got %d", c.GPSBaudRate)
	}
	if c.GPSReplayIntervalMs < 0 {
		return fmt.Errorf("GPS_REPLAY_INTERVAL must not be negative, got %d", c.GPSReplayIntervalMs)
	}
	if c.ConsoleLogInterval < 0 {
		return fmt.Errorf("CONSOLE_LOG_INTERVAL must not be negative, got %d", c.ConsoleLogInterval)
	}
	if c.WebServerPort < 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
	}
	for _, t := range c.GPSTalkerIDs {
		if len(t) != 2 {
			return fmt.Errorf("GPS_TALKER_IDS entries must be 2 characters, got %q", t)
		}
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

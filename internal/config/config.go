// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDGPS      string
	MQTTClientIDCompass  string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicAccel      string
	TopicMag        string
	TopicBaro       string
	TopicBaroStatus string // retained barometer availability
	TopicGPS        string
	TopicView       string
	TopicCommand    string

	// Accelerometer (MPU9250 over SPI)
	IMUSPIDevice      string
	IMUCSPin          string
	IMUSampleInterval int // milliseconds

	// Magnetometer (HMC5983 over I2C)
	MagI2CBus     string
	MagI2CAddr    uint16
	MagODR        int // Hz
	MagAveraging  int // 1, 2, 4 or 8
	MagGain       int // 0-7
	MagSampleMode string

	// Barometer (BMP280/BME280 over SPI). Empty means no barometer.
	BaroSPIDevice string

	// GPS / location
	GPSSerialPort      string
	GPSBaudRate        int
	LocationEnabled    bool
	LocationTimeout    int // seconds
	LocationMaxUpdates int

	// Declination
	DeclinationMode  string // model, fixed, off
	DeclinationFixed float64

	// Presentation compatibility
	NormalizeTrueHeading bool
	DirectionLabels      string // legacy, standard

	// North search
	SearchTolerance float64 // degrees
	SearchHold      int     // milliseconds
	BeepMinDelay    int     // milliseconds
	BeepMaxDelay    int     // milliseconds
	BeepDuration    int     // milliseconds
	ToneVolume      int     // 0-100
	BuzzerPin       string  // empty logs beeps instead
	ToneFrequency   int     // Hz
	SearchButtonPin string  // empty disables the button

	// Reverse geocoding
	GeocoderEnabled bool
	GeocoderAPIKey  string // OpenCage API key
	NotFoundLabel   string

	// Timing
	ConsoleLogInterval int // milliseconds

	// Web Server
	WebServerPort int

	// Display
	DisplayEnabled        bool
	DisplayI2CBus         string
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds
}

// Package-level singleton state. InitGlobal sets globalConfig exactly once
// under the write lock; Get reads it under the read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns a Config with every optional key set.
func Defaults() *Config {
	return &Config{
		MQTTClientIDProducer: "compass-sensor-producer",
		MQTTClientIDGPS:      "compass-gps-producer",
		MQTTClientIDCompass:  "compass-screen",
		MQTTClientIDConsole:  "compass-console",
		MQTTClientIDWeb:      "compass-web",
		MQTTClientIDDisplay:  "compass-display",

		TopicAccel:      "compass/sensors/accel",
		TopicMag:        "compass/sensors/mag",
		TopicBaro:       "compass/sensors/baro",
		TopicBaroStatus: "compass/sensors/baro/status",
		TopicGPS:        "compass/gps",
		TopicView:       "compass/view",
		TopicCommand:    "compass/command",

		IMUSampleInterval: 50,

		MagI2CAddr:    0x1E,
		MagODR:        75,
		MagAveraging:  8,
		MagGain:       1,
		MagSampleMode: "continuous",

		GPSBaudRate:        9600,
		LocationEnabled:    true,
		LocationTimeout:    300,
		LocationMaxUpdates: 1,

		DeclinationMode: "model",
		DirectionLabels: "legacy",

		SearchTolerance: 10,
		SearchHold:      3000,
		BeepMinDelay:    120,
		BeepMaxDelay:    1200,
		BeepDuration:    80,
		ToneVolume:      80,
		ToneFrequency:   2000,

		GeocoderEnabled: true,
		NotFoundLabel:   "Nessuna Città trovata",

		ConsoleLogInterval: 500,
		WebServerPort:      8080,

		DisplayI2CAddr:        0x3C,
		DisplayUpdateInterval: 250,
	}
}

// Load reads the configuration file and returns a Config struct.
// Files ending in .yaml or .yml hold a flat map of the same keys.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = cfg.parseYAML(data)
	default:
		err = cfg.parseText(data)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) parseText(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
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
			return fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := c.setValue(key, value); err != nil {
			return fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

func (c *Config) parseYAML(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("yaml config line %d: expected a mapping of KEY: value", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("config line %d: %s must be a scalar", v.Line, k.Value)
		}
		if err := c.setValue(k.Value, v.Value); err != nil {
			return fmt.Errorf("config line %d: %w", k.Line, err)
		}
	}
	return nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_COMPASS":
		c.MQTTClientIDCompass = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_ACCEL":
		c.TopicAccel = value
	case "TOPIC_MAG":
		c.TopicMag = value
	case "TOPIC_BARO":
		c.TopicBaro = value
	case "TOPIC_BARO_STATUS":
		c.TopicBaroStatus = value
	case "TOPIC_GPS":
		c.TopicGPS = value
	case "TOPIC_VIEW":
		c.TopicView = value
	case "TOPIC_COMMAND":
		c.TopicCommand = value

	// Accelerometer
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_SAMPLE_INTERVAL":
		c.IMUSampleInterval, err = atoiRange(key, value, 1, 60000)

	// Magnetometer
	case "MAG_I2C_BUS":
		c.MagI2CBus = value
	case "MAG_I2C_ADDR":
		c.MagI2CAddr, err = parseAddr(key, value)
	case "MAG_ODR":
		c.MagODR, err = atoiRange(key, value, 1, 220)
	case "MAG_AVERAGING":
		c.MagAveraging, err = atoiRange(key, value, 1, 8)
	case "MAG_GAIN":
		c.MagGain, err = atoiRange(key, value, 0, 7)
	case "MAG_SAMPLE_MODE":
		if value != "continuous" && value != "single" {
			return fmt.Errorf("MAG_SAMPLE_MODE must be continuous or single, got %q", value)
		}
		c.MagSampleMode = value

	// Barometer
	case "BARO_SPI_DEVICE":
		c.BaroSPIDevice = value

	// GPS / location
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = atoiRange(key, value, 1, 921600)
	case "LOCATION_ENABLED":
		c.LocationEnabled, err = parseBool(key, value)
	case "LOCATION_TIMEOUT":
		c.LocationTimeout, err = atoiRange(key, value, 1, 86400)
	case "LOCATION_MAX_UPDATES":
		c.LocationMaxUpdates, err = atoiRange(key, value, 1, 1000)

	// Declination
	case "DECLINATION_MODE":
		switch value {
		case "model", "fixed", "off":
			c.DeclinationMode = value
		default:
			return fmt.Errorf("DECLINATION_MODE must be model, fixed or off, got %q", value)
		}
	case "DECLINATION_FIXED":
		c.DeclinationFixed, err = parseFloat(key, value)

	// Presentation
	case "NORMALIZE_TRUE_HEADING":
		c.NormalizeTrueHeading, err = parseBool(key, value)
	case "DIRECTION_LABELS":
		if value != "legacy" && value != "standard" {
			return fmt.Errorf("DIRECTION_LABELS must be legacy or standard, got %q", value)
		}
		c.DirectionLabels = value

	// North search
	case "SEARCH_TOLERANCE":
		c.SearchTolerance, err = parseFloat(key, value)
	case "SEARCH_HOLD_MS":
		c.SearchHold, err = atoiRange(key, value, 0, 600000)
	case "BEEP_MIN_DELAY_MS":
		c.BeepMinDelay, err = atoiRange(key, value, 1, 60000)
	case "BEEP_MAX_DELAY_MS":
		c.BeepMaxDelay, err = atoiRange(key, value, 1, 60000)
	case "BEEP_DURATION_MS":
		c.BeepDuration, err = atoiRange(key, value, 1, 10000)
	case "TONE_VOLUME":
		c.ToneVolume, err = atoiRange(key, value, 0, 100)
	case "BUZZER_PIN":
		c.BuzzerPin = value
	case "TONE_FREQUENCY":
		c.ToneFrequency, err = atoiRange(key, value, 20, 20000)
	case "SEARCH_BUTTON_PIN":
		c.SearchButtonPin = value

	// Geocoding
	case "GEOCODER_ENABLED":
		c.GeocoderEnabled, err = parseBool(key, value)
	case "GEOCODER_API_KEY":
		c.GeocoderAPIKey = value
	case "GEOCODER_NOT_FOUND_LABEL":
		c.NotFoundLabel = value

	// Timing
	case "CONSOLE_LOG_INTERVAL":
		c.ConsoleLogInterval, err = atoiRange(key, value, 1, 60000)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = atoiRange(key, value, 1, 65535)

	// Display
	case "DISPLAY_ENABLED":
		c.DisplayEnabled, err = parseBool(key, value)
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_I2C_ADDR":
		c.DisplayI2CAddr, err = parseAddr(key, value)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = atoiRange(key, value, 1, 60000)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func atoiRange(key, value string, min, max int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, min, max, v)
	}
	return v, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseAddr(key, value string) (uint16, error) {
	addr, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return uint16(addr), nil
}

// validate checks that required fields are set and that related values
// agree with each other.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.BeepMinDelay > c.BeepMaxDelay {
		return fmt.Errorf("BEEP_MIN_DELAY_MS (%d) must not exceed BEEP_MAX_DELAY_MS (%d)", c.BeepMinDelay, c.BeepMaxDelay)
	}
	if c.SearchTolerance <= 0 || c.SearchTolerance > 180 {
		return fmt.Errorf("SEARCH_TOLERANCE must be in (0, 180], got %v", c.SearchTolerance)
	}
	if c.DeclinationMode == "fixed" && (c.DeclinationFixed < -180 || c.DeclinationFixed > 180) {
		return fmt.Errorf("DECLINATION_FIXED must be within ±180, got %v", c.DeclinationFixed)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance, or nil before
// InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

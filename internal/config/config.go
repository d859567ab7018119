package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete sensorctl configuration
type Config struct {
	InstanceID       string       `yaml:"instance_id"`
	ShutdownTimeoutS int          `yaml:"shutdown_timeout_s"` // Graceful shutdown timeout in seconds (default: 5)
	Driver           DriverConfig `yaml:"driver"`
	Sensor           SensorConfig `yaml:"sensor"`
	MQTT             MQTTConfig   `yaml:"mqtt"`
}

// DriverConfig selects and configures the hardware backend
type DriverConfig struct {
	Backend    string `yaml:"backend"`     // mock, uart
	SerialPort string `yaml:"serial_port"` // uart backend only, e.g. /dev/ttyACM0
}

// SensorConfig contains the startup sensor state and capabilities
type SensorConfig struct {
	Pixformat    string             `yaml:"pixformat"` // GRAYSCALE, RGB565, JPEG, ...
	Framesize    string             `yaml:"framesize"` // QQVGA, QVGA, VGA, ...
	FPS          int                `yaml:"fps"`       // target fps, 0 leaves the device default
	Framebuffers int                `yaml:"framebuffers"`
	AutoRotation bool               `yaml:"auto_rotation"`
	Capabilities CapabilitiesConfig `yaml:"capabilities"`
}

// CapabilitiesConfig gates optional control groups
type CapabilitiesConfig struct {
	Autofocus    bool `yaml:"autofocus"`
	MotionDetect bool `yaml:"motion_detect"`
}

// MQTTConfig contains MQTT broker settings
type MQTTConfig struct {
	Broker string          `yaml:"broker"`
	Topics MQTTTopics      `yaml:"topics"`
	QoS    map[string]byte `yaml:"qos"`
}

// MQTTTopics contains topic templates
type MQTTTopics struct {
	Control string `yaml:"control"`
	Events  string `yaml:"events"`
	Health  string `yaml:"health"`
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

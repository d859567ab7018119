package config

import (
	"fmt"
	"regexp"

	"github.com/visiona/sensorctl/internal/geometry"
	"github.com/visiona/sensorctl/internal/sensor"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	// Validate instance_id
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.ShutdownTimeoutS <= 0 {
		cfg.ShutdownTimeoutS = 5 // default
	}

	// Validate driver config
	switch cfg.Driver.Backend {
	case "mock":
	case "uart":
		if cfg.Driver.SerialPort == "" {
			return fmt.Errorf("driver.serial_port is required for the uart backend")
		}
	case "":
		cfg.Driver.Backend = "mock" // default
	default:
		return fmt.Errorf("driver.backend must be 'mock' or 'uart', got '%s'", cfg.Driver.Backend)
	}

	// Validate sensor config. Names are resolved here so a typo fails
	// at startup, not at the first control command.
	if cfg.Sensor.Pixformat != "" {
		if _, err := sensor.ParsePixformat(cfg.Sensor.Pixformat); err != nil {
			return fmt.Errorf("sensor.pixformat: %w", err)
		}
	}
	if cfg.Sensor.Framesize != "" {
		if _, err := geometry.ParseFrameSize(cfg.Sensor.Framesize); err != nil {
			return fmt.Errorf("sensor.framesize: %w", err)
		}
	}
	if cfg.Sensor.FPS < 0 {
		return fmt.Errorf("sensor.fps must be >= 0")
	}
	if cfg.Sensor.Framebuffers <= 0 {
		cfg.Sensor.Framebuffers = 3 // default
	}

	// Validate MQTT broker
	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}

	// Set default topics if not provided
	if cfg.MQTT.Topics.Control == "" {
		cfg.MQTT.Topics.Control = fmt.Sprintf("sensorctl/control/%s", cfg.InstanceID)
	}
	if cfg.MQTT.Topics.Events == "" {
		cfg.MQTT.Topics.Events = fmt.Sprintf("sensorctl/events/%s", cfg.InstanceID)
	}
	if cfg.MQTT.Topics.Health == "" {
		cfg.MQTT.Topics.Health = fmt.Sprintf("sensorctl/health/%s", cfg.InstanceID)
	}

	// Set default QoS if not provided
	if cfg.MQTT.QoS == nil {
		cfg.MQTT.QoS = map[string]byte{
			"control": 1,
			"events":  0,
			"health":  0,
		}
	}

	return nil
}

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/visiona/sensorctl/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sensorctl.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

const minimalConfig = `
instance_id: bench-cam-01
driver:
  backend: mock
mqtt:
  broker: localhost:1883
`

func TestLoadMinimalConfig(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Defaults fill in everything not specified.
	if cfg.ShutdownTimeoutS != 5 {
		t.Errorf("ShutdownTimeoutS = %d, want default 5", cfg.ShutdownTimeoutS)
	}
	if cfg.Sensor.Framebuffers != 3 {
		t.Errorf("Sensor.Framebuffers = %d, want default 3", cfg.Sensor.Framebuffers)
	}
	if want := "sensorctl/control/bench-cam-01"; cfg.MQTT.Topics.Control != want {
		t.Errorf("Topics.Control = %q, want %q", cfg.MQTT.Topics.Control, want)
	}
	if want := "sensorctl/events/bench-cam-01"; cfg.MQTT.Topics.Events != want {
		t.Errorf("Topics.Events = %q, want %q", cfg.MQTT.Topics.Events, want)
	}
	if cfg.MQTT.QoS["control"] != 1 {
		t.Errorf("QoS[control] = %d, want 1", cfg.MQTT.QoS["control"])
	}
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
instance_id: lab-rig-2
shutdown_timeout_s: 10
driver:
  backend: uart
  serial_port: /dev/ttyACM0
sensor:
  pixformat: RGB565
  framesize: QVGA
  fps: 30
  framebuffers: 2
  auto_rotation: true
  capabilities:
    autofocus: true
    motion_detect: true
mqtt:
  broker: broker.lab:1883
  topics:
    control: lab/control
`))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Driver.Backend != "uart" || cfg.Driver.SerialPort != "/dev/ttyACM0" {
		t.Errorf("Driver = %+v", cfg.Driver)
	}
	if !cfg.Sensor.AutoRotation || !cfg.Sensor.Capabilities.Autofocus {
		t.Errorf("Sensor = %+v", cfg.Sensor)
	}
	// Explicit topic survives, missing ones get defaults.
	if cfg.MQTT.Topics.Control != "lab/control" {
		t.Errorf("Topics.Control = %q, want lab/control", cfg.MQTT.Topics.Control)
	}
	if want := "sensorctl/events/lab-rig-2"; cfg.MQTT.Topics.Events != want {
		t.Errorf("Topics.Events = %q, want %q", cfg.MQTT.Topics.Events, want)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			"missing instance_id",
			"mqtt:\n  broker: localhost:1883\n",
			"instance_id is required",
		},
		{
			"bad instance_id",
			"instance_id: Bench_Cam\nmqtt:\n  broker: localhost:1883\n",
			"instance_id must match",
		},
		{
			"missing broker",
			"instance_id: cam\n",
			"mqtt.broker is required",
		},
		{
			"uart without port",
			"instance_id: cam\ndriver:\n  backend: uart\nmqtt:\n  broker: b:1883\n",
			"driver.serial_port is required",
		},
		{
			"unknown backend",
			"instance_id: cam\ndriver:\n  backend: spi\nmqtt:\n  broker: b:1883\n",
			"driver.backend must be",
		},
		{
			"unknown pixformat",
			"instance_id: cam\nsensor:\n  pixformat: CMYK\nmqtt:\n  broker: b:1883\n",
			"sensor.pixformat",
		},
		{
			"unknown framesize",
			"instance_id: cam\nsensor:\n  framesize: 8K\nmqtt:\n  broker: b:1883\n",
			"sensor.framesize",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tc.yaml))
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Load() error = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}

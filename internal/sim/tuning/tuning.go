package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz    int     `yaml:"tick_rate_hz"`
	Seed          int64   `yaml:"seed"`
	StartAltitude float64 `yaml:"start_altitude"`

	Workers int `yaml:"workers"`

	Telemetry Telemetry `yaml:"telemetry"`
}

type Telemetry struct {
	TickLog  bool `yaml:"tick_log"`
	EventLog bool `yaml:"event_log"`
	Index    bool `yaml:"index"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		TickRateHz:      60,
		Seed:            1337,
		StartAltitude:   120,
		Workers:         2,
		Telemetry: Telemetry{
			TickLog:  true,
			EventLog: true,
			Index:    true,
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if t.TickRateHz <= 0 {
		t.TickRateHz = 60
	}
	if t.Workers < 1 {
		t.Workers = 1
	}
	return t, nil
}

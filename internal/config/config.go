package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPlantGain    = 1.0
	DefaultTimeConstant = 1.0
	DefaultCtrlGain     = 2.0
	DefaultKp           = 2.0
	DefaultKi           = 1.0
	DefaultKd           = 0.1
	DefaultTf           = 0.05
	DefaultDt           = 0.001
	DefaultDuration     = 10.0
)

type Config struct {
	Loop       string           `yaml:"loop"`
	Plant      PlantConfig      `yaml:"plant"`
	Controller ControllerConfig `yaml:"controller"`
	Freq       FreqConfig       `yaml:"freq"`
	Sim        SimConfig        `yaml:"sim"`
}

type PlantConfig struct {
	Gain         float64 `yaml:"gain"`
	TimeConstant float64 `yaml:"time_constant"`
	Omega        float64 `yaml:"omega"`
	Zeta         float64 `yaml:"zeta"`
}

type ControllerConfig struct {
	Gain float64 `yaml:"gain"`
	Kp   float64 `yaml:"kp"`
	Ki   float64 `yaml:"ki"`
	Kd   float64 `yaml:"kd"`
	Tf   float64 `yaml:"tf"`
}

type FreqConfig struct {
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Points int     `yaml:"points"`
}

type SimConfig struct {
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
}

func DefaultConfig() *Config {
	return &Config{
		Loop: "first_order_p",
		Plant: PlantConfig{
			Gain:         DefaultPlantGain,
			TimeConstant: DefaultTimeConstant,
			Omega:        1.0,
			Zeta:         0.7,
		},
		Controller: ControllerConfig{
			Gain: DefaultCtrlGain,
			Kp:   DefaultKp,
			Ki:   DefaultKi,
			Kd:   DefaultKd,
			Tf:   DefaultTf,
		},
		Freq: FreqConfig{
			Min:    0.01,
			Max:    100.0,
			Points: 200,
		},
		Sim: SimConfig{
			Dt:       DefaultDt,
			Duration: DefaultDuration,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

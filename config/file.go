package config

import (
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	LevelFidelities      []float32 `yaml:"level_fidelities"`
	MaxUploadSizeMiB     int64     `yaml:"max_upload_size_mib"`
	GltfpackBinary       string    `yaml:"gltfpack_binary"`
	ProduceTimeoutSec    int       `yaml:"produce_timeout_sec"`
	FetchTimeoutSec      int       `yaml:"fetch_timeout_sec"`
	LevelSwapDelayMs     int       `yaml:"level_swap_delay_ms"`
	MaxConcurrentIntakes int       `yaml:"max_concurrent_intakes"`
}

// LoadFile overlays settings from a yaml file onto the defaults.
// Zero-valued fields keep their current values.
func LoadFile(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to read config %q", path)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return errors.Wrapf(err, "Failed to parse config %q", path)
	}

	for i, f := range fc.LevelFidelities {
		if f <= 0 || f > 1 {
			return errors.Errorf("Fidelity level %d out of range (0;1]: %v", i, f)
		}
		if i > 0 && f <= fc.LevelFidelities[i-1] {
			return errors.Errorf("Fidelity levels must strictly ascend, got %v", fc.LevelFidelities)
		}
	}

	SetLevelFidelities(fc.LevelFidelities)
	SetMaxUploadSize(fc.MaxUploadSizeMiB << 20)
	SetGltfpackBinary(fc.GltfpackBinary)
	if fc.ProduceTimeoutSec > 0 {
		produceTimeout = time.Duration(fc.ProduceTimeoutSec) * time.Second
	}
	if fc.FetchTimeoutSec > 0 {
		fetchTimeout = time.Duration(fc.FetchTimeoutSec) * time.Second
	}
	if fc.LevelSwapDelayMs > 0 {
		levelSwapDelay = time.Duration(fc.LevelSwapDelayMs) * time.Millisecond
	}
	SetMaxConcurrentIntakes(fc.MaxConcurrentIntakes)
	return nil
}

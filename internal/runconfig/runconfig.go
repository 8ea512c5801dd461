// Package runconfig loads a deal run's environment configuration —
// where to find the input bundle, where to write logs and output
// tables — the same way the rest of this lineage's config package
// does: a JSON file, located either locally or under CONFIG_PATH when
// OCP_ENV is set (the convention used for the containerized
// deployment), decoded into a typed struct instead of the loosely
// typed map the original used.
package runconfig

import (
	"encoding/json"
	"fmt"
	"os"
)

// RunConfig is the environment-level configuration for a clo-run
// invocation: where the deal input bundle lives and where to put
// logs and the output bundle. It does not carry deal economics —
// those live in the input bundle read from InputPath.
type RunConfig struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
	LogDir     string `json:"log_dir"`
	DebugMode  bool   `json:"debug_mode"`
}

// Load reads config.json from the local directory, or from
// CONFIG_PATH when OCP_ENV is set, matching the teacher config
// package's environment switch.
func Load() (RunConfig, error) {
	path := "./config.json"
	if os.Getenv("OCP_ENV") != "" {
		path = os.Getenv("CONFIG_PATH") + "config.json"
	}

	file, err := os.Open(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("runconfig: open %s: %w", path, err)
	}
	defer file.Close()

	var cfg RunConfig
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return RunConfig{}, fmt.Errorf("runconfig: decode %s: %w", path, err)
	}

	if cfg.InputPath == "" {
		return RunConfig{}, fmt.Errorf("runconfig: %s missing input_path", path)
	}

	return cfg, nil
}

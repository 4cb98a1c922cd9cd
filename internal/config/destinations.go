package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DestinationConfig is the non-secret configuration of one destination.
// Credentials are resolved separately through the secrets provider.
type DestinationConfig struct {
	Name              string            `yaml:"name"`
	Disabled          bool              `yaml:"disabled"`
	RequestsPerSecond float64           `yaml:"requests_per_second"`
	Burst             int               `yaml:"burst"`
	InstrumentsFile   string            `yaml:"instruments_file"`
	Instruments       map[string]string `yaml:"instruments"`
}

type destinationsFile struct {
	Destinations []DestinationConfig `yaml:"destinations"`
}

var knownDestinations = map[string]bool{
	"collective2": true,
	"crunchdao":   true,
	"numerai":     true,
}

// DefaultDestinations enables every supported destination at one request per second.
func DefaultDestinations() []DestinationConfig {
	return []DestinationConfig{
		{Name: "collective2", RequestsPerSecond: 1, Burst: 1},
		{Name: "crunchdao", RequestsPerSecond: 1, Burst: 1},
		{Name: "numerai", RequestsPerSecond: 1, Burst: 1},
	}
}

// LoadDestinations reads the destinations YAML file. ${VAR} references are
// expanded from the environment. An empty path yields DefaultDestinations.
func LoadDestinations(path string) ([]DestinationConfig, error) {
	if path == "" {
		return DefaultDestinations(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read destinations file: %w", err)
	}

	var f destinationsFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &f); err != nil {
		return nil, fmt.Errorf("failed to parse destinations file: %w", err)
	}
	if err := validateDestinations(f.Destinations); err != nil {
		return nil, fmt.Errorf("destinations validation failed: %w", err)
	}
	return f.Destinations, nil
}

func validateDestinations(dests []DestinationConfig) error {
	if len(dests) == 0 {
		return fmt.Errorf("no destinations configured")
	}
	seen := make(map[string]bool, len(dests))
	for i := range dests {
		d := &dests[i]
		d.Name = strings.ToLower(strings.TrimSpace(d.Name))
		if !knownDestinations[d.Name] {
			return fmt.Errorf("destinations[%d]: unknown destination %q", i, d.Name)
		}
		if seen[d.Name] {
			return fmt.Errorf("destinations[%d]: duplicate destination %q", i, d.Name)
		}
		seen[d.Name] = true
		if d.RequestsPerSecond < 0 || d.Burst < 0 {
			return fmt.Errorf("destinations[%d]: rate limits must not be negative", i)
		}
	}
	return nil
}

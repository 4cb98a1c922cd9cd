package secrets

import (
	"fmt"
	"strconv"

	"github.com/Checker-Finance/signal-exports/internal/collective2"
	"github.com/Checker-Finance/signal-exports/internal/crunchdao"
	"github.com/Checker-Finance/signal-exports/internal/numerai"
)

// Fields lists every secret field any destination reads. The environment
// provider needs it because it cannot enumerate a secret's keys.
var Fields = []string{
	"api_key", "system_id", "base_url",
	"model", "label", "comment",
	"public_id", "secret_key", "model_id",
}

func required(m map[string]string, keys ...string) error {
	for _, k := range keys {
		if m[k] == "" {
			return fmt.Errorf("missing required field %q", k)
		}
	}
	return nil
}

// ParseCollective2 reads api_key, system_id and optional base_url.
func ParseCollective2(m map[string]string) (collective2.Config, error) {
	if err := required(m, "api_key", "system_id"); err != nil {
		return collective2.Config{}, err
	}
	systemID, err := strconv.Atoi(m["system_id"])
	if err != nil {
		return collective2.Config{}, fmt.Errorf("invalid system_id %q: %w", m["system_id"], err)
	}
	return collective2.Config{
		APIKey:   m["api_key"],
		SystemID: systemID,
		BaseURL:  m["base_url"],
	}, nil
}

// ParseCrunchDAO reads api_key, model and the optional label, comment and base_url.
func ParseCrunchDAO(m map[string]string) (crunchdao.Config, error) {
	if err := required(m, "api_key", "model"); err != nil {
		return crunchdao.Config{}, err
	}
	return crunchdao.Config{
		APIKey:  m["api_key"],
		Model:   m["model"],
		Label:   m["label"],
		Comment: m["comment"],
		BaseURL: m["base_url"],
	}, nil
}

// ParseNumerai reads public_id, secret_key, model_id and optional base_url.
func ParseNumerai(m map[string]string) (numerai.Config, error) {
	if err := required(m, "public_id", "secret_key", "model_id"); err != nil {
		return numerai.Config{}, err
	}
	return numerai.Config{
		PublicID:  m["public_id"],
		SecretKey: m["secret_key"],
		ModelID:   m["model_id"],
		BaseURL:   m["base_url"],
	}, nil
}

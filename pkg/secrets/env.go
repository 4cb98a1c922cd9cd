package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider reads secrets from environment variables, for local runs.
// Secret "dev/signal-exports/collective2" with field "api_key" is read from
// DEV_SIGNAL_EXPORTS_COLLECTIVE2_API_KEY.
type EnvProvider struct {
	fields  []string
	environ func() []string
}

// NewEnvProvider returns a provider that looks up the given field names.
func NewEnvProvider(fields ...string) *EnvProvider {
	return &EnvProvider{fields: fields, environ: os.Environ}
}

func (p *EnvProvider) GetSecret(_ context.Context, name string) (map[string]string, error) {
	prefix := envPrefix(name)
	env := envMap(p.environ())

	out := make(map[string]string)
	for _, f := range p.fields {
		if v, ok := env[prefix+"_"+strings.ToUpper(f)]; ok && v != "" {
			out[f] = v
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no environment values for secret [%s]", name)
	}
	return out, nil
}

// ListSecrets is not supported by the environment backend and always returns no names.
func (p *EnvProvider) ListSecrets(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func envPrefix(name string) string {
	r := strings.NewReplacer("/", "_", "-", "_", ".", "_")
	return strings.ToUpper(r.Replace(name))
}

func envMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}


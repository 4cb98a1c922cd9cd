package instruments

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry maps internal tickers to the identifier a destination uses for them
// (a CrunchDAO instrument code, a Numerai country code override, ...).
type Registry struct {
	name   string
	codes  map[string]string
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewRegistry creates an empty registry. name is used in logs only.
func NewRegistry(name string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		name:   name,
		codes:  make(map[string]string),
		logger: logger,
	}
}

// LoadFromFile merges a JSON object of ticker -> code into the registry.
func (r *Registry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s identifier file: %w", r.name, err)
	}

	var mappings map[string]string
	if err := json.Unmarshal(data, &mappings); err != nil {
		return fmt.Errorf("failed to unmarshal %s identifiers: %w", r.name, err)
	}

	r.Load(mappings)
	r.logger.Info("instruments.loaded",
		zap.String("registry", r.name),
		zap.String("path", path),
		zap.Int("count", len(mappings)))
	return nil
}

// Load merges mappings into the registry. Blank codes are skipped.
func (r *Registry) Load(mappings map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ticker, code := range mappings {
		if code = strings.TrimSpace(code); code == "" {
			continue
		}
		r.codes[normalize(ticker)] = code
	}
}

// Code returns the destination identifier for ticker.
func (r *Registry) Code(ticker string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code, ok := r.codes[normalize(ticker)]
	return code, ok
}

// Len reports the number of mappings. A nil registry is empty.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.codes)
}

func normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

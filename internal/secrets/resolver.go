package secrets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	pkgsecrets "github.com/Checker-Finance/signal-exports/pkg/secrets"
)

// Service is the middle segment of every secret name.
const Service = "signal-exports"

// Resolver resolves one destination's credentials from a secret backend,
// caching the parsed result. It is generic over the destination config type T.
//
// Secret naming convention: {env}/signal-exports/{destination}
type Resolver[T any] struct {
	logger      *zap.Logger
	env         string
	destination string
	provider    pkgsecrets.Provider
	cache       *pkgsecrets.Cache[T]
}

// NewResolver constructs a resolver for a single destination.
func NewResolver[T any](
	logger *zap.Logger,
	env string,
	destination string,
	provider pkgsecrets.Provider,
	cache *pkgsecrets.Cache[T],
) *Resolver[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver[T]{
		logger:      logger,
		env:         env,
		destination: destination,
		provider:    provider,
		cache:       cache,
	}
}

// SecretName is the backend key holding this destination's credentials.
func (r *Resolver[T]) SecretName() string {
	return strings.ToLower(fmt.Sprintf("%s/%s/%s", r.env, Service, r.destination))
}

// Resolve returns the cached config or fetches and parses it.
// parse should validate required fields.
func (r *Resolver[T]) Resolve(ctx context.Context, parse func(map[string]string) (T, error)) (T, error) {
	key := strings.ToLower(r.destination)
	if cfg, ok := r.cache.Get(key); ok {
		return cfg, nil
	}

	name := r.SecretName()
	secretMap, err := r.provider.GetSecret(ctx, name)
	if err != nil {
		r.logger.Warn("secrets.fetch_failed",
			zap.String("key", name),
			zap.Error(err))
		var zero T
		return zero, fmt.Errorf("resolve %s credentials: %w", r.destination, err)
	}

	cfg, err := parse(secretMap)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("parse secret %q: %w", name, err)
	}

	r.cache.Put(key, cfg)
	r.logger.Info("secrets.destination_resolved", zap.String("destination", r.destination))
	return cfg, nil
}

// Invalidate drops the cached config so the next Resolve refetches it.
func (r *Resolver[T]) Invalidate() {
	r.cache.Bust(strings.ToLower(r.destination))
}

// DiscoverDestinations lists destination names with a secret under "{env}/signal-exports/".
func DiscoverDestinations(ctx context.Context, logger *zap.Logger, provider pkgsecrets.Provider, env string) ([]string, error) {
	prefix := strings.ToLower(fmt.Sprintf("%s/%s/", env, Service))

	names, err := provider.ListSecrets(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("discover destinations: %w", err)
	}

	var destinations []string
	for _, name := range names {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		// "{env}/signal-exports/{destination}" -> destination
		trimmed := strings.TrimPrefix(lower, prefix)
		if trimmed != "" && !strings.Contains(trimmed, "/") {
			destinations = append(destinations, trimmed)
		}
	}

	if logger != nil {
		logger.Info("secrets.destinations_discovered",
			zap.Int("count", len(destinations)),
			zap.Strings("destinations", destinations))
	}
	return destinations, nil
}

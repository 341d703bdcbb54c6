package providers

import (
	"context"
	"errors"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/metrics"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/redis"
)

const capabilityKeyPrefix = "provider:capabilities:"

// CapabilityCache stores discovered capabilities. *redis.Client satisfies it.
type CapabilityCache interface {
	GetJSON(ctx context.Context, key string, out any) error
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Registry holds the configured providers in query order.
type Registry struct {
	providers []Provider
	cache     CapabilityCache
	ttl       time.Duration
	logger    ectologger.Logger
}

// NewRegistry builds a registry. cache may be nil, in which case every lookup asks the provider.
func NewRegistry(cache CapabilityCache, ttl time.Duration, logger ectologger.Logger, providers ...Provider) *Registry {
	return &Registry{
		providers: providers,
		cache:     cache,
		ttl:       ttl,
		logger:    logger,
	}
}

func (r *Registry) Providers() []Provider {
	return r.providers
}

// Get finds a provider by system name.
func (r *Registry) Get(systemName string) (Provider, bool) {
	p := ectolinq.Find(r.providers, func(p Provider) bool {
		return p.SystemName() == systemName
	})
	return p, p != nil
}

// Capable returns the providers that can search kind, in registry order.
func (r *Registry) Capable(ctx context.Context, kind entity.Kind) []Provider {
	return ectolinq.Filter(r.providers, func(p Provider) bool {
		caps, err := r.Capabilities(ctx, p)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).WithField("provider", p.SystemName()).Warn("Skipping provider with unknown capabilities")
			return false
		}
		return caps.Supports(kind)
	})
}

// Describe lists every provider's capabilities. Providers whose discovery fails are listed without kinds.
func (r *Registry) Describe(ctx context.Context) []Capabilities {
	return ectolinq.Map(r.providers, func(p Provider) Capabilities {
		caps, err := r.Capabilities(ctx, p)
		if err != nil {
			return Capabilities{SystemName: p.SystemName(), Kinds: []entity.Kind{}}
		}
		return caps
	})
}

// Capabilities resolves a provider's capabilities through the cache.
func (r *Registry) Capabilities(ctx context.Context, p Provider) (Capabilities, error) {
	key := capabilityKeyPrefix + p.SystemName()

	if r.cache != nil {
		var cached Capabilities
		err := r.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			metrics.RecordCapabilityCache(true)
			return cached, nil
		}
		if !errors.Is(err, redis.ErrMiss) {
			r.logger.WithContext(ctx).WithError(err).Debug("Capability cache read failed")
		}
		metrics.RecordCapabilityCache(false)
	}

	caps, err := p.Capabilities(ctx)
	if err != nil {
		return caps, err
	}

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, key, caps, r.ttl); err != nil {
			r.logger.WithContext(ctx).WithError(err).Debug("Capability cache write failed")
		}
	}
	return caps, nil
}

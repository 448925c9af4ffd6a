package ringqueue

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// MinCapacity is the smallest capacity a ring can be built or resized to.
const MinCapacity = 3

// config contains the collaborators of a ring.
type config struct {
	Allocator Allocator
	Logger    *zap.Logger
}

// Option allows configuring a ring based on functional options.
type Option func(config) config

func newConfig(opts ...Option) (config, error) {
	cfg := defaultCfg()
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	return cfg, validateCfg(cfg)
}

// WithAllocator sets the allocator backing the ring slots.
// The ring uses it exclusively for the duration of each call.
func WithAllocator(a Allocator) Option {
	return func(c config) config {
		c.Allocator = a
		return c
	}
}

// WithLogger defines a custom logger to be used by the ring.
func WithLogger(logger *zap.Logger) Option {
	return func(c config) config {
		c.Logger = logger
		return c
	}
}

func defaultCfg() config {
	return config{
		Allocator: &HeapAllocator{},
		Logger:    zap.NewNop(),
	}
}

func validateCfg(cfg config) error {
	if cfg.Allocator == nil {
		return errors.Wrap(ErrInvalidConfiguration, "allocator is required")
	}
	if cfg.Logger == nil {
		return errors.Wrap(ErrInvalidConfiguration, "logger is required")
	}
	return nil
}

func validateCapacity(capacity int) error {
	if capacity < MinCapacity {
		return errors.Wrapf(ErrInvalidConfiguration, "capacity %d is below minimum %d", capacity, MinCapacity)
	}
	return nil
}

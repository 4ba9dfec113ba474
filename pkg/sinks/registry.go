package sinks

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// BuildOptions carries the dependencies shared by every sink builder.
type BuildOptions struct {
	Log                Logger
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

// Builder creates a Sink from a config entry.
type Builder func(ctx context.Context, cfg SinkConfig, opts BuildOptions) (Sink, error)

// Registry maps sink types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	SinkFor(ctx context.Context, cfg SinkConfig, opts BuildOptions) (Sink, error)
}

type registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) Registry {
	r := &registry{builders: make(map[string]Builder)}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

func (r *registry) Register(typ string, builder Builder) {
	if typ = strings.TrimSpace(strings.ToLower(typ)); typ == "" || builder == nil {
		return
	}

	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

func (r *registry) SinkFor(ctx context.Context, cfg SinkConfig, opts BuildOptions) (Sink, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("sink %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no sink registered for type %q", cfg.Type)
	}
	opts.Log = ensureLogger(opts.Log)
	return builder(ctx, cfg, opts)
}

// DefaultRegistry wires up the built-in sinks.
func DefaultRegistry() Registry {
	return NewRegistry(map[string]Builder{
		TypeHTTP:   newHTTPSink,
		TypeSQS:    newSQSSink,
		TypeSNS:    newSNSSink,
		TypePubSub: newPubSubSink,
	})
}

// BuildAll instantiates every config with reg. Sinks built before a failure
// are closed.
func BuildAll(ctx context.Context, reg Registry, cfgs []SinkConfig, opts BuildOptions) ([]Sink, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}

	sinks := make([]Sink, 0, len(cfgs))
	for _, cfg := range cfgs {
		s, err := reg.SinkFor(ctx, cfg, opts)
		if err != nil {
			for _, built := range sinks {
				_ = built.Close()
			}
			return nil, fmt.Errorf("build sink %q: %w", cfg.ID, err)
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

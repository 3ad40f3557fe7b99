// Package gen holds the generator-side analysis core: the capability
// policy table, the constraint classifier, the reachability engine, and
// the pluggable backend contracts the test harness drives.
package gen

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/skellig/stencil"
)

// Mode selects the code generation flavor.
type Mode int

const (
	// ModeClient generates client-side code: infallible builders, no
	// validating wrappers.
	ModeClient Mode = iota
	// ModeServer generates server-side code: fallible builders and
	// constrained type wrappers.
	ModeServer
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeClient:
		return "client"
	case ModeServer:
		return "server"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Config carries the generation mode, the constraint capability policy,
// the settings document, and a logger. Zero value is usable: client mode,
// default policy, nop logger.
type Config struct {
	// Mode selects client or server generation.
	Mode Mode

	// Policy decides which trait+kind combinations materialize as
	// validated types. Nil means DefaultPolicy.
	Policy CapabilityPolicy

	// Settings is the merged settings document for the invocation.
	Settings stencil.Settings

	// Logger receives backend progress. Analysis stays silent.
	Logger *zap.Logger
}

// Option configures code generation.
type Option func(*Config) error

// WithMode sets the generation mode.
func WithMode(m Mode) Option {
	return func(c *Config) error {
		if m != ModeClient && m != ModeServer {
			return NewConfigError("Mode", int(m), "unsupported mode; use ModeClient or ModeServer")
		}
		c.Mode = m
		return nil
	}
}

// WithPolicy sets the constraint capability policy.
func WithPolicy(p CapabilityPolicy) Option {
	return func(c *Config) error {
		if p == nil {
			return NewConfigError("Policy", nil, "policy cannot be nil")
		}
		c.Policy = p
		return nil
	}
}

// WithSettings sets the settings document.
func WithSettings(s stencil.Settings) Option {
	return func(c *Config) error {
		c.Settings = s
		return nil
	}
}

// WithLogger sets the logger used by harness orchestration.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	if c.Policy == nil {
		c.Policy = DefaultPolicy()
	}
	if c.Settings == nil {
		c.Settings = stencil.Settings{}
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

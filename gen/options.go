package gen

import (
	"github.com/go-logr/logr"

	"github.com/sarchlab/vdt/config"
)

type settings struct {
	maxFanoutBits int
	maxNodes      int
	maxDepth      int
	verify        bool
	logger        logr.Logger
}

// Option is a functional option for configuring a generator.
type Option func(*settings)

// WithMaxFanoutBits bounds the number of bits one multi-way node tests.
func WithMaxFanoutBits(n int) Option {
	return func(s *settings) {
		s.maxFanoutBits = n
	}
}

// WithMaxNodes aborts generation with ErrBudgetExceeded beyond n nodes.
func WithMaxNodes(n int) Option {
	return func(s *settings) {
		s.maxNodes = n
	}
}

// WithMaxDepth aborts generation with ErrBudgetExceeded beyond depth n.
func WithMaxDepth(n int) Option {
	return func(s *settings) {
		s.maxDepth = n
	}
}

// WithVerification decodes a witness of every entry after generation.
func WithVerification(enabled bool) Option {
	return func(s *settings) {
		s.verify = enabled
	}
}

// WithLogger sets the logger. Tree statistics are logged at V(1), node
// decisions at V(2).
func WithLogger(logger logr.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// OptionsFromConfig maps a configuration onto generator options.
func OptionsFromConfig(c *config.Config) []Option {
	return []Option{
		WithMaxFanoutBits(c.MaxFanoutBits),
		WithMaxNodes(c.MaxNodes),
		WithMaxDepth(c.MaxDepth),
		WithVerification(c.Verify),
	}
}

func newSettings(opts []Option) settings {
	defaults := config.DefaultConfig()
	s := settings{
		maxFanoutBits: defaults.MaxFanoutBits,
		maxNodes:      defaults.MaxNodes,
		maxDepth:      defaults.MaxDepth,
		logger:        logr.Discard(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.maxFanoutBits < 1 {
		s.maxFanoutBits = 1
	}
	return s
}

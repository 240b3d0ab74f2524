package sim

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/lscsim/internal/dynamo"
)

// Config describes one drift: integrate over [0, Length] and record
// EvalPoints equally spaced snapshots including both ends.
type Config struct {
	Length     float64
	EvalPoints int
	Options    dynamo.Options
}

func (c Config) validate() error {
	if !(c.Length > 0) {
		return fmt.Errorf("%w: drift length must be positive, got %g", dynamo.ErrDomain, c.Length)
	}
	if c.EvalPoints < 2 {
		return fmt.Errorf("%w: need at least 2 evaluation points, got %d", dynamo.ErrDomain, c.EvalPoints)
	}
	return nil
}

// Periodic is implemented by systems whose longitudinal coordinate wraps.
type Periodic interface {
	Coordinate() dynamo.Coordinate
	Period() float64
}

type Option func(*Simulator)

func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(ms ...dynamo.Metric) Option {
	return func(s *Simulator) { s.metrics = append(s.metrics, ms...) }
}

func WithObservers(obs ...dynamo.Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, obs...) }
}

package random

import (
	"context"

	"go.uber.org/zap"
)

// LoggedProvider wraps a Provider and logs every draw at debug level.
type LoggedProvider struct {
	next   Provider
	logger *zap.Logger
}

// NewLoggedProvider creates a LoggedProvider that draws from next and logs
// each value to logger.
//
// Precondition: next and logger must be non-nil.
func NewLoggedProvider(next Provider, logger *zap.Logger) *LoggedProvider {
	return &LoggedProvider{next: next, logger: logger}
}

// Float draws from the wrapped provider and logs the outcome.
//
// Postcondition: Returns exactly the wrapped provider's value and error.
func (p *LoggedProvider) Float(ctx context.Context) (float64, error) {
	val, err := p.next.Float(ctx)
	if err != nil {
		p.logger.Debug("random draw failed", zap.Error(err))
		return 0, err
	}
	p.logger.Debug("random draw", zap.Float64("value", val))
	return val, nil
}

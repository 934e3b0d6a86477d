package ratelimit

import (
	"errors"
	"sync"

	"github.com/deusflow/headlinegroups/internal/logger"
)

// ErrBudgetExceeded is returned once a FetchBudget is spent.
var ErrBudgetExceeded = errors.New("fetch budget exceeded")

// FetchBudget caps the number of outbound article fetches in one run.
type FetchBudget struct {
	mu       sync.Mutex
	used     int
	denied   int
	maxTotal int
}

// NewFetchBudget returns a budget of maxTotal fetches; 0 means unlimited.
func NewFetchBudget(maxTotal int) *FetchBudget {
	return &FetchBudget{maxTotal: maxTotal}
}

// Take consumes one fetch or reports that the budget is gone.
func (b *FetchBudget) Take() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxTotal > 0 && b.used >= b.maxTotal {
		b.denied++
		if b.denied == 1 {
			logger.Warn("image fetch budget reached", "used", b.used, "limit", b.maxTotal)
		}
		return ErrBudgetExceeded
	}
	b.used++
	return nil
}

// Remaining returns fetches left, or -1 when unlimited.
func (b *FetchBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.maxTotal <= 0 {
		return -1
	}
	return b.maxTotal - b.used
}

// GetStats returns current budget statistics
func (b *FetchBudget) GetStats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	return map[string]interface{}{
		"fetches_used":   b.used,
		"fetches_limit":  b.maxTotal,
		"fetches_denied": b.denied,
	}
}

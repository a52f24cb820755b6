package governor

import (
	"sync"
	"time"

	"whats-up/internal/domain"
)

// DailyBudget caps the number of LLM synthesis runs per UTC day across all
// clients. The counter is only charged after a synthesis actually completes,
// so cache hits and failed runs never consume budget.
type DailyBudget struct {
	mu    sync.Mutex
	cap   int
	spent int
	day   time.Time
	now   func() time.Time
}

func NewDailyBudget(cap int) *DailyBudget {
	if cap <= 0 {
		cap = 200
	}
	return &DailyBudget{cap: cap, now: time.Now}
}

// Allow reports whether a synthesis may start today. When the budget is
// exhausted it returns a BudgetExceededError carrying the next UTC midnight.
func (b *DailyBudget) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollover()
	if b.spent >= b.cap {
		return &domain.BudgetExceededError{ResetAt: b.day.Add(24 * time.Hour)}
	}
	return nil
}

// Spend charges one unit against today's budget. Call only after a
// synthesis has actually run.
func (b *DailyBudget) Spend() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollover()
	b.spent++
}

func (b *DailyBudget) rollover() {
	today := b.now().UTC().Truncate(24 * time.Hour)
	if !today.Equal(b.day) {
		b.day = today
		b.spent = 0
	}
}

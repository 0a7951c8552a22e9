// Package validation checks carts against stock, either debounced while the
// cart is being edited or immediately at checkout.
package validation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"go.uber.org/zap"
)

const DefaultDebounce = 500 * time.Millisecond

var ErrClosed = errors.New("validation coordinator closed")

type State int32

const (
	Idle State = iota
	Scheduled
	Executing
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case Executing:
		return "executing"
	}
	return "idle"
}

type ValidateFunc func(ctx context.Context, storeID string, items []dto.CartItem) (*dto.ValidationResult, error)

type Outcome struct {
	Result *dto.ValidationResult
	Err    error
}

type request struct {
	ctx   context.Context
	items []dto.CartItem
	done  chan Outcome
}

// answer never blocks: done is buffered and written exactly once.
func (r *request) answer(o Outcome) {
	r.done <- o
}

// slot is the debounce state machine of one store.
type slot struct {
	mu        sync.Mutex
	pending   *request
	timer     *time.Timer
	exec      sync.Mutex
	executing atomic.Bool
}

// Coordinator collapses bursts of validation requests per store into one run.
// Stores never wait on each other.
type Coordinator struct {
	validate ValidateFunc
	delay    time.Duration
	logger   logger.ZapLogger

	mu     sync.Mutex
	slots  map[string]*slot
	closed bool
}

func NewCoordinator(validate ValidateFunc, delay time.Duration, log logger.ZapLogger) *Coordinator {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Coordinator{
		validate: validate,
		delay:    delay,
		logger:   log,
		slots:    make(map[string]*slot),
	}
}

func (c *Coordinator) slot(storeID string) (*slot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	s, ok := c.slots[storeID]
	if !ok {
		s = &slot{}
		c.slots[storeID] = s
	}
	return s, nil
}

// Schedule queues a validation for storeID and returns the channel its outcome
// arrives on. A request still waiting for the timer is answered with
// deduction.ErrSuperseded and the delay restarts.
func (c *Coordinator) Schedule(ctx context.Context, storeID string, items []dto.CartItem) <-chan Outcome {
	req := &request{ctx: ctx, items: items, done: make(chan Outcome, 1)}
	s, err := c.slot(storeID)
	if err != nil {
		req.answer(Outcome{Err: err})
		return req.done
	}

	s.mu.Lock()
	c.supersede(s, storeID)
	s.pending = req
	s.timer = time.AfterFunc(c.delay, func() { c.fire(s, storeID, req) })
	s.mu.Unlock()
	return req.done
}

// Validate is Schedule for callers that wait. Giving up through ctx withdraws a
// request that has not started.
func (c *Coordinator) Validate(ctx context.Context, storeID string, items []dto.CartItem) (*dto.ValidationResult, error) {
	done := c.Schedule(ctx, storeID, items)
	select {
	case o := <-done:
		return o.Result, o.Err
	case <-ctx.Done():
		c.withdraw(storeID, done)
		return nil, ctx.Err()
	}
}

// ValidateImmediate drops any pending request for the store and validates now.
// It waits for a run already in flight rather than aborting it.
func (c *Coordinator) ValidateImmediate(ctx context.Context, storeID string, items []dto.CartItem) (*dto.ValidationResult, error) {
	s, err := c.slot(storeID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	c.supersede(s, storeID)
	s.mu.Unlock()

	return c.run(ctx, s, storeID, items)
}

// State reports the store's current state.
func (c *Coordinator) State(storeID string) State {
	c.mu.Lock()
	s, ok := c.slots[storeID]
	c.mu.Unlock()
	if !ok {
		return Idle
	}
	if s.executing.Load() {
		return Executing
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		return Scheduled
	}
	return Idle
}

// Close stops every timer and answers pending requests with ErrClosed.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	slots := c.slots
	c.mu.Unlock()

	for _, s := range slots {
		s.mu.Lock()
		if s.pending != nil {
			s.timer.Stop()
			s.pending.answer(Outcome{Err: ErrClosed})
			s.pending = nil
		}
		s.mu.Unlock()
	}
}

// supersede must be called with s.mu held.
func (c *Coordinator) supersede(s *slot, storeID string) {
	if s.pending == nil {
		return
	}
	s.timer.Stop()
	s.pending.answer(Outcome{Err: deduction.ErrSuperseded})
	s.pending = nil
	c.logger.Debug("Validation superseded", zap.String("store_id", storeID))
}

func (c *Coordinator) withdraw(storeID string, done <-chan Outcome) {
	c.mu.Lock()
	s, ok := c.slots[storeID]
	c.mu.Unlock()
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil && (<-chan Outcome)(s.pending.done) == done {
		s.timer.Stop()
		s.pending = nil
	}
}

func (c *Coordinator) fire(s *slot, storeID string, req *request) {
	s.mu.Lock()
	if s.pending != req {
		// Superseded between the timer firing and taking the lock.
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.mu.Unlock()

	res, err := c.run(req.ctx, s, storeID, req.items)
	req.answer(Outcome{Result: res, Err: err})
}

func (c *Coordinator) run(ctx context.Context, s *slot, storeID string, items []dto.CartItem) (*dto.ValidationResult, error) {
	s.exec.Lock()
	defer s.exec.Unlock()
	s.executing.Store(true)
	defer s.executing.Store(false)

	res, err := c.validate(ctx, storeID, items)
	if err != nil {
		c.logger.Warn("Cart validation failed", zap.String("store_id", storeID), zap.Error(err))
	}
	return res, err
}

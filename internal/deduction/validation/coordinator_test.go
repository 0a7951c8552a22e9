package validation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingValidate struct {
	mu    sync.Mutex
	calls map[string]int
	last  map[string][]dto.CartItem
	block chan struct{}
}

func newCountingValidate() *countingValidate {
	return &countingValidate{calls: make(map[string]int), last: make(map[string][]dto.CartItem)}
}

func (v *countingValidate) fn(ctx context.Context, storeID string, items []dto.CartItem) (*dto.ValidationResult, error) {
	if v.block != nil {
		<-v.block
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls[storeID]++
	v.last[storeID] = items
	return &dto.ValidationResult{StoreID: storeID, Valid: true}, nil
}

func (v *countingValidate) count(storeID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls[storeID]
}

func cart(qty float64) []dto.CartItem {
	return []dto.CartItem{{ProductID: "p1", Quantity: qty}}
}

func TestCoordinator_CollapsesBurst(t *testing.T) {
	v := newCountingValidate()
	c := NewCoordinator(v.fn, 50*time.Millisecond, logger.NewNop())
	defer c.Close()

	const n = 10
	chans := make([]<-chan Outcome, n)
	for i := 0; i < n; i++ {
		chans[i] = c.Schedule(context.Background(), "s1", cart(float64(i+1)))
	}
	assert.Equal(t, Scheduled, c.State("s1"))

	superseded := 0
	for i, ch := range chans {
		o := <-ch
		if i < n-1 {
			assert.ErrorIs(t, o.Err, deduction.ErrSuperseded)
			superseded++
			continue
		}
		require.NoError(t, o.Err)
		assert.True(t, o.Result.Valid)
	}

	assert.Equal(t, n-1, superseded)
	assert.Equal(t, 1, v.count("s1"))
	assert.Equal(t, float64(n), v.last["s1"][0].Quantity)
	assert.Equal(t, Idle, c.State("s1"))
}

func TestCoordinator_StoresAreIndependent(t *testing.T) {
	v := newCountingValidate()
	c := NewCoordinator(v.fn, 30*time.Millisecond, logger.NewNop())
	defer c.Close()

	a := c.Schedule(context.Background(), "s1", cart(1))
	b := c.Schedule(context.Background(), "s2", cart(1))

	require.NoError(t, (<-a).Err)
	require.NoError(t, (<-b).Err)
	assert.Equal(t, 1, v.count("s1"))
	assert.Equal(t, 1, v.count("s2"))
}

func TestCoordinator_ImmediateBypassesDebounce(t *testing.T) {
	v := newCountingValidate()
	c := NewCoordinator(v.fn, time.Hour, logger.NewNop())
	defer c.Close()

	pending := c.Schedule(context.Background(), "s1", cart(1))

	start := time.Now()
	res, err := c.ValidateImmediate(context.Background(), "s1", cart(2))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Less(t, time.Since(start), time.Second)

	assert.ErrorIs(t, (<-pending).Err, deduction.ErrSuperseded)
	assert.Equal(t, 1, v.count("s1"))
	assert.Equal(t, float64(2), v.last["s1"][0].Quantity)
}

func TestCoordinator_ImmediateWaitsForInFlightRun(t *testing.T) {
	v := newCountingValidate()
	v.block = make(chan struct{})
	c := NewCoordinator(v.fn, 10*time.Millisecond, logger.NewNop())
	defer c.Close()

	debounced := c.Schedule(context.Background(), "s1", cart(1))
	require.Eventually(t, func() bool { return c.State("s1") == Executing }, time.Second, 5*time.Millisecond)

	var immediateDone atomic.Bool
	go func() {
		_, _ = c.ValidateImmediate(context.Background(), "s1", cart(2))
		immediateDone.Store(true)
	}()

	time.Sleep(30 * time.Millisecond)
	assert.False(t, immediateDone.Load())

	close(v.block)
	o := <-debounced
	require.NoError(t, o.Err)
	require.Eventually(t, immediateDone.Load, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, v.count("s1"))
}

func TestCoordinator_ValidateHonoursContext(t *testing.T) {
	v := newCountingValidate()
	c := NewCoordinator(v.fn, time.Hour, logger.NewNop())
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Validate(ctx, "s1", cart(1))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Idle, c.State("s1"))
	assert.Equal(t, 0, v.count("s1"))
}

func TestCoordinator_PropagatesFetchError(t *testing.T) {
	boom := errors.New("backend unavailable")
	var calls atomic.Int32
	c := NewCoordinator(func(ctx context.Context, storeID string, items []dto.CartItem) (*dto.ValidationResult, error) {
		calls.Add(1)
		return nil, boom
	}, 10*time.Millisecond, logger.NewNop())
	defer c.Close()

	_, err := c.Validate(context.Background(), "s1", cart(1))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCoordinator_Close(t *testing.T) {
	v := newCountingValidate()
	c := NewCoordinator(v.fn, time.Hour, logger.NewNop())

	pending := c.Schedule(context.Background(), "s1", cart(1))
	c.Close()
	assert.ErrorIs(t, (<-pending).Err, ErrClosed)

	_, err := c.ValidateImmediate(context.Background(), "s1", cart(1))
	assert.ErrorIs(t, err, ErrClosed)
}

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTransient = errors.New("unavailable")
	errFatal     = errors.New("bad request")
)

type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newRetrier(rec *recorder) Retrier {
	return Retrier{
		Policy:    DefaultPolicy(),
		Retryable: func(err error) bool { return errors.Is(err, errTransient) },
		Sleep:     rec.sleep,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	rec := &recorder{}
	calls := 0
	v, err := Do(context.Background(), newRetrier(rec), func(context.Context, int) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestDo_BackoffDoublesBetweenAttempts(t *testing.T) {
	rec := &recorder{}
	calls := 0
	_, err := Do(context.Background(), newRetrier(rec), func(context.Context, int) (string, error) {
		calls++
		return "", errTransient
	})
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, errTransient)

	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond}, rec.delays)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	rec := &recorder{}
	calls := 0
	_, err := Do(context.Background(), newRetrier(rec), func(context.Context, int) (int, error) {
		calls++
		return 0, errFatal
	})
	require.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestDo_RecoversOnThirdAttempt(t *testing.T) {
	rec := &recorder{}
	var retried []int
	r := newRetrier(rec)
	r.OnRetry = func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) }

	v, err := Do(context.Background(), r, func(_ context.Context, attempt int) (int, error) {
		if attempt < 3 {
			return 0, errTransient
		}
		return attempt, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, []int{1, 2}, retried)
	assert.Len(t, rec.delays, 2)
}

func TestDo_InvalidPolicy(t *testing.T) {
	_, err := Do(context.Background(), Retrier{}, func(context.Context, int) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestPolicyDelay(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 1000 * time.Millisecond, Multiplier: 2}
	assert.Equal(t, 1000*time.Millisecond, p.Delay(1))
	assert.Equal(t, 2000*time.Millisecond, p.Delay(2))
	assert.Equal(t, 4000*time.Millisecond, p.Delay(3))
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}

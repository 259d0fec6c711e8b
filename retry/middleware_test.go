package retry

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultStrategy(t *testing.T) {
	strategy := DefaultStrategy()

	assert.Equal(t, 10, strategy.MaxAttempts)
	assert.Equal(t, 30*time.Second, strategy.BaseDelay)
	assert.Equal(t, 30*time.Minute, strategy.MaxDelay)
	assert.Equal(t, 2.0, strategy.ExponentialBase)
	assert.Equal(t, 5, strategy.ExhaustionThreshold)
}

func TestStrategy_CalculateRetryDelay(t *testing.T) {
	strategy := DefaultStrategy()

	tests := []struct {
		name          string
		attemptNumber int
		expectedDelay time.Duration
	}{
		{name: "zero attempts uses base delay", attemptNumber: 0, expectedDelay: 30 * time.Second},
		{name: "first attempt doubles base delay", attemptNumber: 1, expectedDelay: 60 * time.Second},
		{name: "second attempt continues exponential growth", attemptNumber: 2, expectedDelay: 120 * time.Second},
		{name: "third attempt reaches four minutes", attemptNumber: 3, expectedDelay: 240 * time.Second},
		{name: "fourth attempt reaches eight minutes", attemptNumber: 4, expectedDelay: 480 * time.Second},
		{name: "fifth attempt reaches sixteen minutes", attemptNumber: 5, expectedDelay: 960 * time.Second},
		{name: "sixth attempt is capped at max delay", attemptNumber: 6, expectedDelay: 30 * time.Minute},
		{name: "large attempt number stays capped", attemptNumber: 100, expectedDelay: 30 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay := strategy.CalculateRetryDelay(tt.attemptNumber)
			assert.Equal(t, tt.expectedDelay, delay)
		})
	}
}

func TestStrategy_CalculateRetryDelay_CustomStrategy(t *testing.T) {
	strategy := Strategy{
		MaxAttempts:         5,
		BaseDelay:           1 * time.Second,
		MaxDelay:            10 * time.Second,
		ExponentialBase:     3.0,
		ExhaustionThreshold: 3,
	}

	tests := []struct {
		attemptNumber int
		expectedDelay time.Duration
	}{
		{0, 1 * time.Second},
		{1, 3 * time.Second},
		{2, 9 * time.Second},
		{3, 10 * time.Second}, // would be 27s, capped at 10s
		{4, 10 * time.Second},
	}

	for _, tt := range tests {
		delay := strategy.CalculateRetryDelay(tt.attemptNumber)
		assert.Equal(t, tt.expectedDelay, delay)
	}
}

func TestStrategy_IsExhausted(t *testing.T) {
	strategy := DefaultStrategy()

	tests := []struct {
		name         string
		attemptCount int
		expected     bool
	}{
		{name: "no attempts yet", attemptCount: 0, expected: false},
		{name: "below threshold", attemptCount: 4, expected: false},
		{name: "at threshold", attemptCount: 5, expected: true},
		{name: "above threshold", attemptCount: 7, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := strategy.IsExhausted(tt.attemptCount)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestStrategy_IsRetryable(t *testing.T) {
	strategy := DefaultStrategy()

	tests := []struct {
		name         string
		attemptCount int
		expected     bool
	}{
		{name: "no attempts", attemptCount: 0, expected: true},
		{name: "few attempts", attemptCount: 5, expected: true},
		{name: "at max attempts", attemptCount: 10, expected: false},
		{name: "beyond max attempts", attemptCount: 15, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := strategy.IsRetryable(tt.attemptCount)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestStrategy_GetRetrySchedule(t *testing.T) {
	strategy := Strategy{
		MaxAttempts:         5,
		BaseDelay:           10 * time.Second,
		MaxDelay:            2 * time.Minute,
		ExponentialBase:     2.0,
		ExhaustionThreshold: 3,
	}

	schedule := strategy.GetRetrySchedule()

	assert.Contains(t, schedule, "Retry Schedule:")
	assert.Contains(t, schedule, "Attempt 1")
	assert.Contains(t, schedule, "Attempt 2")
	assert.Contains(t, schedule, "Attempt 3")
	assert.Contains(t, schedule, "Attempt 4")
	assert.Contains(t, schedule, "Attempt 5")
	assert.Contains(t, schedule, "exhausted, leaving row unpublished")

	assert.Contains(t, schedule, "20s")
	assert.Contains(t, schedule, "40s")
	assert.Contains(t, schedule, "1m20s")

	lines := strings.Split(schedule, "\n")
	assert.True(t, len(lines) > 5, "should have multiple lines")
}

func TestStrategy_GetRetrySchedule_DefaultStrategy(t *testing.T) {
	strategy := DefaultStrategy()

	schedule := strategy.GetRetrySchedule()

	assert.Contains(t, schedule, "Retry Schedule:")
	for i := 1; i <= 10; i++ {
		assert.Contains(t, schedule, "Attempt")
	}
	assert.Contains(t, schedule, "exhausted, leaving row unpublished")

	assert.Contains(t, schedule, "1m0s")  // attempt 1: 30s * 2
	assert.Contains(t, schedule, "2m0s")  // attempt 2: 30s * 4
	assert.Contains(t, schedule, "4m0s")  // attempt 3: 30s * 8
	assert.Contains(t, schedule, "30m0s") // max delay appears
}

// TestStrategy_RelayFlow simulates the outbox relay's own usage pattern:
// poll, attempt publish, back off, and give up without raising an error
// once attempts are exhausted, leaving the row unpublished for the next
// poll cycle or operator inspection.
func TestStrategy_RelayFlow(t *testing.T) {
	strategy := DefaultStrategy()

	var delays []time.Duration
	for attempt := 1; attempt <= 10; attempt++ {
		delay := strategy.CalculateRetryDelay(attempt)
		delays = append(delays, delay)

		canRetry := strategy.IsRetryable(attempt)
		exhausted := strategy.IsExhausted(attempt)

		if attempt < 10 {
			assert.True(t, canRetry, "should be retryable for attempt %d", attempt)
		} else {
			assert.False(t, canRetry, "should not be retryable at max attempts")
		}

		if attempt >= 5 {
			assert.True(t, exhausted, "should be exhausted at attempt %d", attempt)
		} else {
			assert.False(t, exhausted, "should not be exhausted before threshold")
		}
	}

	for i := 1; i < len(delays); i++ {
		assert.True(t, delays[i] >= delays[i-1],
			"delay for attempt %d (%v) should be >= previous (%v)",
			i+1, delays[i], delays[i-1])
	}

	lastDelay := delays[len(delays)-1]
	assert.Equal(t, 30*time.Minute, lastDelay, "last delay should be capped at max")
}

func TestStrategy_BoundaryValues(t *testing.T) {
	t.Run("zero base delay", func(t *testing.T) {
		strategy := Strategy{
			BaseDelay:       0,
			ExponentialBase: 2.0,
			MaxDelay:        1 * time.Minute,
		}

		delay := strategy.CalculateRetryDelay(5)
		assert.Equal(t, time.Duration(0), delay)
	})

	t.Run("exponential base of 1", func(t *testing.T) {
		strategy := Strategy{
			BaseDelay:       30 * time.Second,
			ExponentialBase: 1.0,
			MaxDelay:        1 * time.Minute,
		}

		delay1 := strategy.CalculateRetryDelay(1)
		delay5 := strategy.CalculateRetryDelay(5)
		assert.Equal(t, delay1, delay5, "delay should not increase with base 1.0")
	})

	t.Run("max delay equals base delay", func(t *testing.T) {
		strategy := Strategy{
			BaseDelay:       30 * time.Second,
			ExponentialBase: 2.0,
			MaxDelay:        30 * time.Second,
		}

		delay1 := strategy.CalculateRetryDelay(1)
		assert.Equal(t, 30*time.Second, delay1, "should be capped at max immediately")
	})
}

func BenchmarkCalculateRetryDelay(b *testing.B) {
	strategy := DefaultStrategy()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = strategy.CalculateRetryDelay(i % 10)
	}
}

func BenchmarkIsExhausted(b *testing.B) {
	strategy := DefaultStrategy()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = strategy.IsExhausted(i % 10)
	}
}

package redrive

import (
	"testing"
	"time"

	"github.com/poiesic/resumatch/ai"
	"github.com/stretchr/testify/assert"
)

func TestDecide_TokenPressureSchedule(t *testing.T) {
	info := &ai.RateInfo{RemainingRequests: 100, RemainingTokens: 500}

	wants := []time.Duration{15 * time.Second, 30 * time.Second, 45 * time.Second, 60 * time.Second}
	for attempt, want := range wants {
		d := Decide(attempt, info, 100)
		assert.False(t, d.Stop)
		assert.Equal(t, want, d.Wait, "attempt %d", attempt)
	}

	// Past the schedule the last wait repeats.
	d := Decide(7, info, 100)
	assert.Equal(t, 60*time.Second, d.Wait)
}

func TestDecide_RequestPressureSchedule(t *testing.T) {
	info := &ai.RateInfo{RemainingRequests: 2, RemainingTokens: 100000}

	wants := []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 30 * time.Second}
	for attempt, want := range wants {
		d := Decide(attempt, info, 100)
		assert.False(t, d.Stop)
		assert.Equal(t, want, d.Wait, "attempt %d", attempt)
	}
}

func TestDecide_DailyExhaustionStops(t *testing.T) {
	info := &ai.RateInfo{
		RemainingRequests: 0,
		RemainingTokens:   100000,
		ResetTokens:       20 * time.Hour,
		DailyLimit:        true,
	}
	d := Decide(0, info, 100)
	assert.True(t, d.Stop)
	assert.Zero(t, d.Wait)
}

func TestDecide_DailyLimitWithShortResetRetries(t *testing.T) {
	// A daily-flagged budget about to reset is worth waiting out.
	info := &ai.RateInfo{
		RemainingRequests: 0,
		RemainingTokens:   100000,
		ResetTokens:       30 * time.Second,
		DailyLimit:        true,
	}
	d := Decide(0, info, 100)
	assert.False(t, d.Stop)
	assert.Equal(t, 5*time.Second, d.Wait)
}

func TestDecide_HiddenHeadersLargePrompt(t *testing.T) {
	// No headers at all: assume token pressure for large prompts only,
	// with a flat wait since there is no budget to pace against.
	d := Decide(0, nil, largePromptChars+1)
	assert.Equal(t, 30*time.Second, d.Wait)

	d = Decide(0, nil, 100)
	assert.Equal(t, 10*time.Second, d.Wait)
}

func TestDecide_TokenBudgetHiddenLargePrompt(t *testing.T) {
	// The token budget alone is hidden: large prompts take the
	// escalating token schedule.
	info := &ai.RateInfo{RemainingRequests: 100, RemainingTokens: -1}

	d := Decide(0, info, largePromptChars+1)
	assert.Equal(t, 15*time.Second, d.Wait)
	assert.Equal(t, "token pressure", d.Reason)

	d = Decide(0, info, 100)
	assert.Equal(t, 10*time.Second, d.Wait)
}

func TestDecide_DefaultWaitGrowsAndCaps(t *testing.T) {
	info := &ai.RateInfo{RemainingRequests: 100, RemainingTokens: 100000}

	assert.Equal(t, 10*time.Second, Decide(0, info, 100).Wait)
	assert.Equal(t, 20*time.Second, Decide(1, info, 100).Wait)
	assert.Equal(t, 30*time.Second, Decide(2, info, 100).Wait)
	assert.Equal(t, 30*time.Second, Decide(5, info, 100).Wait)
}

func TestDecide_TokenPressureWinsOverRequestPressure(t *testing.T) {
	info := &ai.RateInfo{RemainingRequests: 1, RemainingTokens: 100}
	d := Decide(0, info, 100)
	assert.Equal(t, 15*time.Second, d.Wait)
	assert.Equal(t, "token pressure", d.Reason)
}

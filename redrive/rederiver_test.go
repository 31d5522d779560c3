package redrive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/resumatch/ai"
	"github.com/poiesic/resumatch/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSleeps replaces the rederiver's sleep with an instant recorder.
func recordSleeps(r *Rederiver) *[]time.Duration {
	var waits []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return &waits
}

func TestDerive_FirstTrySuccess(t *testing.T) {
	deriver := &mock.MockSectionDeriver{
		DeriveSectionsFunc: func(ctx context.Context, raw string) (*ai.DerivedSections, *ai.RateInfo, error) {
			return &ai.DerivedSections{Skills: []string{"Go"}}, nil, nil
		},
	}
	r := NewRederiver(deriver)

	result := r.Derive(context.Background(), "raw resume text")
	assert.Equal(t, StatusRecovered, result.Status)
	assert.Equal(t, 1, result.Attempts)
	require.NotNil(t, result.Sections)
	assert.Equal(t, []string{"Go"}, result.Sections.Skills)
}

func TestDerive_RecoversAfterTokenPressure(t *testing.T) {
	// Three token-pressure failures then success: the waits follow the
	// token schedule.
	info := &ai.RateInfo{RemainingRequests: 100, RemainingTokens: 500}
	calls := 0
	deriver := &mock.MockSectionDeriver{
		DeriveSectionsFunc: func(ctx context.Context, raw string) (*ai.DerivedSections, *ai.RateInfo, error) {
			calls++
			if calls <= 3 {
				return nil, info, errors.New("429 too many requests")
			}
			return &ai.DerivedSections{}, info, nil
		},
	}
	r := NewRederiver(deriver)
	waits := recordSleeps(r)

	result := r.Derive(context.Background(), "raw")
	assert.Equal(t, StatusRecovered, result.Status)
	assert.Equal(t, 4, result.Attempts)
	assert.Equal(t, []time.Duration{15 * time.Second, 30 * time.Second, 45 * time.Second}, *waits)
}

func TestDerive_AttemptsExhaustedIsValue(t *testing.T) {
	wantErr := errors.New("persistent failure")
	deriver := &mock.MockSectionDeriver{
		DeriveSectionsFunc: func(ctx context.Context, raw string) (*ai.DerivedSections, *ai.RateInfo, error) {
			return nil, nil, wantErr
		},
	}
	r := NewRederiver(deriver, WithMaxAttempts(2))
	recordSleeps(r)

	result := r.Derive(context.Background(), "raw")
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, 2, result.Attempts)
	assert.ErrorIs(t, result.LastErr, wantErr)
}

func TestDerive_DailyExhaustionStopsEarly(t *testing.T) {
	info := &ai.RateInfo{
		RemainingRequests: 0,
		RemainingTokens:   100000,
		ResetTokens:       20 * time.Hour,
		DailyLimit:        true,
	}
	calls := 0
	deriver := &mock.MockSectionDeriver{
		DeriveSectionsFunc: func(ctx context.Context, raw string) (*ai.DerivedSections, *ai.RateInfo, error) {
			calls++
			return nil, info, errors.New("429 daily quota")
		},
	}
	r := NewRederiver(deriver)
	recordSleeps(r)

	result := r.Derive(context.Background(), "raw")
	assert.Equal(t, StatusExhausted, result.Status)
	assert.Equal(t, 1, calls)
}

func TestDerive_ContextCancelled(t *testing.T) {
	deriver := &mock.MockSectionDeriver{
		DeriveSectionsFunc: func(ctx context.Context, raw string) (*ai.DerivedSections, *ai.RateInfo, error) {
			return nil, nil, errors.New("failure")
		},
	}
	r := NewRederiver(deriver)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := r.Derive(ctx, "raw")
	assert.Equal(t, StatusFailed, result.Status)
	assert.ErrorIs(t, result.LastErr, context.Canceled)
}

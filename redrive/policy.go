// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package redrive drives LLM section derivation under provider rate
// limits. The retry policy reads the backend's limit headers and picks a
// wait schedule to match: token pressure backs off harder than request
// pressure, and a spent daily quota stops the run instead of burning
// retries against a budget that will not refill for hours.
package redrive

import (
	"time"

	"github.com/poiesic/resumatch/ai"
)

// Wait schedules, indexed by attempt. Past the last entry the last entry
// repeats.
var (
	// tokenWaits applies under token pressure: the token bucket refills
	// slowly, so waits start long and grow.
	tokenWaits = []time.Duration{15 * time.Second, 30 * time.Second, 45 * time.Second, 60 * time.Second}

	// requestWaits applies under request pressure: the request bucket
	// refills by the minute, so shorter waits suffice.
	requestWaits = []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 30 * time.Second}
)

const (
	// tokenLowWater is the remaining-token level under which the next
	// call is assumed to be throttled.
	tokenLowWater = 2000

	// requestLowWater is the remaining-request level under which the
	// next call is assumed to be throttled.
	requestLowWater = 3

	// largePromptChars marks prompts big enough to hit token limits on
	// backends that hide their headers.
	largePromptChars = 6000

	// hiddenHeadersWait applies when the backend exposes no limit
	// headers at all and the prompt is large.
	hiddenHeadersWait = 30 * time.Second

	// dailyResetFloor is the token-reset horizon beyond which a daily
	// limit is treated as spent for the rest of the run.
	dailyResetFloor = time.Hour

	// defaultWaitStep grows the fallback wait per attempt.
	defaultWaitStep = 10 * time.Second

	// defaultWaitMax caps the fallback wait.
	defaultWaitMax = 30 * time.Second
)

// Decision is the policy's verdict after a failed derivation attempt.
type Decision struct {
	// Stop is true when retrying cannot succeed within this run.
	Stop bool

	// Wait is how long to wait before the next attempt. Zero when Stop
	// is set.
	Wait time.Duration

	// Reason names the branch taken, for logging.
	Reason string
}

// Decide picks the retry behavior for a failed attempt. attempt is
// zero-based; promptChars is the size of the prompt that failed.
//
// Classification order: a spent daily quota stops the run; token
// pressure (reported, or a hidden token budget with a large prompt)
// takes the long schedule; request pressure takes the short one; a
// backend that hides every header gets a flat wait for large prompts;
// anything else takes a growing default wait.
func Decide(attempt int, info *ai.RateInfo, promptChars int) Decision {
	if info != nil && info.DailyLimit && info.RemainingRequests == 0 && info.ResetTokens >= dailyResetFloor {
		return Decision{Stop: true, Reason: "daily quota exhausted"}
	}

	tokenPressure := info != nil && info.RemainingTokens >= 0 && info.RemainingTokens <= tokenLowWater
	tokenUnknown := info != nil && !info.Unknown() && info.RemainingTokens < 0
	if tokenPressure || (tokenUnknown && promptChars > largePromptChars) {
		return Decision{Wait: scheduleAt(tokenWaits, attempt), Reason: "token pressure"}
	}

	if info != nil && info.RemainingRequests >= 0 && info.RemainingRequests <= requestLowWater {
		return Decision{Wait: scheduleAt(requestWaits, attempt), Reason: "request pressure"}
	}

	if info.Unknown() && promptChars > largePromptChars {
		return Decision{Wait: hiddenHeadersWait, Reason: "token pressure assumed"}
	}

	wait := time.Duration(attempt+1) * defaultWaitStep
	if wait > defaultWaitMax {
		wait = defaultWaitMax
	}
	return Decision{Wait: wait, Reason: "unclassified failure"}
}

func scheduleAt(waits []time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(waits) {
		return waits[len(waits)-1]
	}
	return waits[attempt]
}

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


// Package keywords extracts salient terms from free text for the keyword
// half of hybrid scoring. Extraction is a pure function of the input text:
// no model calls, no mutable state, identical input gives identical output.
package keywords

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultMinScore is the default score threshold for kept terms.
const DefaultMinScore = 0.9

const (
	acronymBoost      = 2.0
	commonWordPenalty = 0.4
	multiwordBoost    = 1.3
)

// acronymPattern matches acronym-shaped tokens: AWS, CI/CD halves, S3,
// .NET-style fragments.
var acronymPattern = regexp.MustCompile(`^[A-Z0-9\-.]{2,}$`)

// tokenPattern keeps letters, digits and the punctuation that occurs
// inside technical terms (c++, c#, node.js, scikit-learn).
var tokenPattern = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9+#.\-]*`)

// IsAcronym reports whether the token (in its original casing) looks like
// an acronym.
func IsAcronym(token string) bool {
	return acronymPattern.MatchString(token)
}

// candidate is one occurrence of a candidate term.
type candidate struct {
	term    string // lower-cased
	acronym bool
}

// Extract returns the salient terms of text scoring at or above minScore.
//
// Candidates are the non-stopword tokens (a noun approximation), the
// acronym-shaped tokens, and adjacent-candidate bigram phrases. Each term
// scores frequency x 2.0 if acronym-shaped x 0.4 if an everyday word
// x 1.3 if multi-word. The result is lower-cased, deduplicated and sorted.
func Extract(text string, minScore float64) []string {
	scores := Score(text)

	kept := make([]string, 0, len(scores))
	for term, score := range scores {
		if score >= minScore {
			kept = append(kept, term)
		}
	}
	sort.Strings(kept)
	return kept
}

// Score returns every candidate term of text with its salience score.
func Score(text string) map[string]float64 {
	candidates := extractCandidates(text)

	freq := make(map[string]int, len(candidates))
	acronyms := make(map[string]bool)
	for _, c := range candidates {
		freq[c.term]++
		if c.acronym {
			acronyms[c.term] = true
		}
	}

	scores := make(map[string]float64, len(freq))
	for term, count := range freq {
		score := float64(count)
		if acronyms[term] {
			score *= acronymBoost
		}
		if isCommonWord(term) {
			score *= commonWordPenalty
		}
		if strings.Contains(term, " ") {
			score *= multiwordBoost
		}
		scores[term] = score
	}
	return scores
}

// extractCandidates collects candidate occurrences: single tokens,
// acronyms, and bigram phrases over adjacent candidate tokens.
func extractCandidates(text string) []candidate {
	tokens := tokenPattern.FindAllString(text, -1)
	candidates := make([]candidate, 0, len(tokens))

	// Indexes into tokens of the kept single-token candidates, used to
	// form phrases only from tokens that were adjacent in the text.
	type kept struct {
		pos  int
		term string
	}
	var keptTokens []kept

	for i, token := range tokens {
		cleaned := strings.Trim(token, ".-")
		if len(cleaned) < 2 {
			continue
		}
		lower := strings.ToLower(cleaned)
		if isStopword(lower) {
			continue
		}
		candidates = append(candidates, candidate{term: lower, acronym: IsAcronym(cleaned)})
		keptTokens = append(keptTokens, kept{pos: i, term: lower})
	}

	// Bigram noun-phrase approximation: two kept tokens that were
	// adjacent in the original text form a phrase candidate.
	for i := 1; i < len(keptTokens); i++ {
		if keptTokens[i].pos == keptTokens[i-1].pos+1 {
			candidates = append(candidates, candidate{
				term: keptTokens[i-1].term + " " + keptTokens[i].term,
			})
		}
	}

	return candidates
}

package keywords

// englishStopwords is the general English stopword set.
var englishStopwords = map[string]bool{
	"a": true, "about": true, "above": true, "after": true, "again": true,
	"against": true, "all": true, "also": true, "am": true, "an": true,
	"and": true, "any": true, "are": true, "as": true, "at": true,
	"be": true, "because": true, "been": true, "before": true, "being": true,
	"below": true, "between": true, "both": true, "but": true, "by": true,
	"can": true, "could": true, "did": true, "do": true, "does": true,
	"doing": true, "down": true, "during": true, "each": true, "few": true,
	"for": true, "from": true, "further": true, "had": true, "has": true,
	"have": true, "having": true, "he": true, "her": true, "here": true,
	"hers": true, "him": true, "his": true, "how": true, "i": true,
	"if": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "just": true, "may": true, "me": true, "more": true,
	"most": true, "must": true, "my": true, "no": true, "nor": true,
	"not": true, "of": true, "off": true, "on": true, "once": true,
	"only": true, "or": true, "other": true, "our": true, "ours": true,
	"out": true, "over": true, "own": true, "same": true, "she": true,
	"should": true, "so": true, "some": true, "such": true, "than": true,
	"that": true, "the": true, "their": true, "theirs": true, "them": true,
	"then": true, "there": true, "these": true, "they": true, "this": true,
	"those": true, "through": true, "to": true, "too": true, "under": true,
	"until": true, "up": true, "very": true, "was": true, "we": true,
	"were": true, "what": true, "when": true, "where": true, "which": true,
	"while": true, "who": true, "whom": true, "why": true, "will": true,
	"with": true, "would": true, "you": true, "your": true, "yours": true,
}

// boilerplateStopwords is job-posting boilerplate that carries no signal
// for matching.
var boilerplateStopwords = map[string]bool{
	"abilities":        true,
	"ability":          true,
	"candidate":        true,
	"candidates":       true,
	"department":       true,
	"environment":      true,
	"experience":       true,
	"job":              true,
	"position":         true,
	"qualification":    true,
	"qualifications":   true,
	"requirement":      true,
	"requirements":     true,
	"responsibilities": true,
	"responsible":      true,
	"role":             true,
	"skills":           true,
	"team":             true,
	"work":             true,
	"years":            true,
}

// isStopword reports whether the lower-cased word is filtered out of
// candidate extraction.
func isStopword(word string) bool {
	return englishStopwords[word] || boilerplateStopwords[word]
}

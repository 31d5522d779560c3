package keywords

// commonWords are high-frequency everyday English words (the zipf >= 4.0
// band). Technical vocabulary rarely appears here, so membership is used
// as a commonness penalty rather than a filter.
var commonWords = map[string]bool{
	"account": true, "area": true, "back": true, "business": true,
	"call": true, "case": true, "change": true, "company": true,
	"country": true, "course": true, "day": true, "end": true,
	"eye": true, "fact": true, "family": true, "good": true,
	"government": true, "group": true, "hand": true, "help": true,
	"home": true, "hour": true, "house": true, "idea": true,
	"information": true, "issue": true, "kind": true, "life": true,
	"line": true, "lot": true, "man": true, "member": true,
	"money": true, "month": true, "name": true, "need": true,
	"night": true, "number": true, "office": true, "order": true,
	"part": true, "people": true, "person": true, "place": true,
	"plan": true, "point": true, "problem": true, "program": true,
	"project": true, "question": true, "reason": true, "result": true,
	"right": true, "room": true, "school": true, "service": true,
	"side": true, "state": true, "story": true, "student": true,
	"study": true, "system": true, "thing": true, "time": true,
	"use": true, "water": true, "way": true, "week": true,
	"woman": true, "word": true, "world": true, "year": true,
}

// isCommonWord reports whether the term is a high-frequency everyday word.
// Multi-word phrases are common only if every word is.
func isCommonWord(term string) bool {
	start := 0
	for i := 0; i <= len(term); i++ {
		if i == len(term) || term[i] == ' ' {
			if !commonWords[term[start:i]] {
				return false
			}
			start = i + 1
		}
	}
	return true
}

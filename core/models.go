package core

import (
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// Section identifies one of the indexed parts of a document.
// Each section is stored in its own collection.
type Section string

const (
	// SectionSummary holds the professional summary lines.
	SectionSummary Section = "summary"
	// SectionSkills holds the skills entries.
	SectionSkills Section = "skills"
	// SectionExperiences holds the work experience records.
	SectionExperiences Section = "experiences"
)

// Sections lists every indexed section, in aggregation order.
var Sections = []Section{SectionSummary, SectionSkills, SectionExperiences}

// ValidSection reports whether s is a member of the closed section set.
func ValidSection(s Section) bool {
	switch s {
	case SectionSummary, SectionSkills, SectionExperiences:
		return true
	}
	return false
}

// Experience is one work experience record inside a document.
type Experience struct {
	Role             string
	Company          string
	Environment      string
	Responsibilities []string
}

// Document is the ranked entity: a structured resume snapshot.
// ID is the canonical string form of the source store's id and is the
// only join key across stores; it must not change across re-ingestion.
type Document struct {
	ID          string
	Category    string
	PrimaryRole string
	Summary     []string
	Skills      []string
	Experiences []Experience
}

// CanonicalID normalizes a source-store id to its single canonical string
// representation. Whatever native type the source store used, the same
// document always maps to the same string.
func CanonicalID(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Chunk is one bounded span of a section's text carrying an embedding
// vector and a keyword set. The Section field is the variant tag: the
// experience fields are populated only when Section == SectionExperiences,
// which Validate enforces.
type Chunk struct {
	ID          string
	DocumentID  string
	Section     Section
	ChunkIndex  int
	TotalChunks int
	Text        string
	Vector      []float32
	Keywords    []string
	Category    string
	PrimaryRole string

	// Experience variant fields.
	ExperienceRole  string
	Company         string
	Environment     string
	ExperienceIndex int
}

// ChunkID derives a deterministic point id from the chunk's coordinates.
// Re-ingesting an unchanged document produces the same ids, so upserts
// overwrite in place instead of accreting stale points.
func ChunkID(documentID string, section Section, experienceIndex, chunkIndex int) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(documentID))
	h.Write([]byte{0})
	h.Write([]byte(section))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(experienceIndex)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(chunkIndex)))
	return hex.EncodeToString(h.Sum(nil))
}

// IDFromContent generates a deterministic 64-bit id from text content.
func IDFromContent(text string) uint64 {
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(text))
	return binary.LittleEndian.Uint64(h.Sum(nil))
}

// NormalizeKeywords lower-cases, deduplicates and sorts a keyword set.
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

// DocumentScore is one ranked result: a document and its hybrid score.
type DocumentScore struct {
	DocumentID string
	Score      float64
}

// Signals is the per-document score breakdown returned by whole-document
// ranking for caller-side explainability.
type Signals struct {
	SummaryScore    float64
	SkillsScore     float64
	ExperienceScore float64
	KeywordScore    float64
}

// UpsertStats aggregates the outcome of a batched write. Partial failure
// is reported here, never as an error.
type UpsertStats struct {
	Succeeded int
	Failed    int
}

// Add accumulates another stats value.
func (s *UpsertStats) Add(other UpsertStats) {
	s.Succeeded += other.Succeeded
	s.Failed += other.Failed
}

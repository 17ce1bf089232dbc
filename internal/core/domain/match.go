package domain

// Match is a corpus entry ranked against a query.
type Match struct {
	// Index is the entry's position in the corpus.
	Index int `json:"index"`

	// Phrase is the corpus entry text.
	Phrase string `json:"phrase"`

	// Score is the cosine similarity in [-1, 1].
	Score float64 `json:"score"`
}

// Classification is the outcome of comparing a query to a domain's
// closest known phrase.
type Classification struct {
	Domain    KnowledgeDomain `json:"domain"`
	Query     string          `json:"query"`
	BestMatch string          `json:"best_match"`
	Score     float64         `json:"score"`
	IsKnown   bool            `json:"is_known"`
}

// IsNovel is the inverse of IsKnown.
func (c Classification) IsNovel() bool {
	return !c.IsKnown
}

// Status returns the badge for this classification.
func (c Classification) Status() FieldStatus {
	return StatusFor(c.IsKnown)
}

// FieldStatus marks a reviewed field as new or previously seen.
type FieldStatus string

// Field statuses shown to reviewers.
const (
	FieldStatusNew FieldStatus = "new"
	FieldStatusOld FieldStatus = "old"
)

// StatusFor maps a known/novel decision to a badge.
func StatusFor(isKnown bool) FieldStatus {
	if isKnown {
		return FieldStatusOld
	}
	return FieldStatusNew
}

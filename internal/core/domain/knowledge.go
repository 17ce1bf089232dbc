package domain

import (
	"fmt"
	"strings"
)

const unknownDescription = "Unknown"

// KnowledgeDomain identifies one of the independent knowledge bases.
// Each domain owns exactly one corpus and one embedding cache.
type KnowledgeDomain string

// Available knowledge domains.
const (
	// DomainActivity holds work activity names.
	DomainActivity KnowledgeDomain = "activity"

	// DomainHazard holds hazard descriptions.
	DomainHazard KnowledgeDomain = "hazard"

	// DomainControl holds existing risk control descriptions.
	DomainControl KnowledgeDomain = "control"

	// DomainInjury holds possible injury descriptions.
	DomainInjury KnowledgeDomain = "injury"

	// DomainTitleProcess holds form title and process name pairs.
	DomainTitleProcess KnowledgeDomain = "title_process"
)

// TitleProcessSeparator joins a form title and process name into one
// title_process phrase.
const TitleProcessSeparator = "%%"

// IsValid returns true if the domain is recognised.
func (d KnowledgeDomain) IsValid() bool {
	switch d {
	case DomainActivity, DomainHazard, DomainControl, DomainInjury, DomainTitleProcess:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d KnowledgeDomain) String() string {
	return string(d)
}

// Description returns a human-readable description of the domain.
func (d KnowledgeDomain) Description() string {
	switch d {
	case DomainActivity:
		return "Work activities"
	case DomainHazard:
		return "Hazard descriptions"
	case DomainControl:
		return "Existing risk controls"
	case DomainInjury:
		return "Possible injuries"
	case DomainTitleProcess:
		return "Form title and process pairs"
	default:
		return unknownDescription
	}
}

// AllKnowledgeDomains returns every domain in maintenance order.
func AllKnowledgeDomains() []KnowledgeDomain {
	return []KnowledgeDomain{
		DomainActivity,
		DomainHazard,
		DomainControl,
		DomainInjury,
		DomainTitleProcess,
	}
}

// ParseKnowledgeDomain converts user input into a KnowledgeDomain.
// Matching ignores case and surrounding whitespace.
func ParseKnowledgeDomain(s string) (KnowledgeDomain, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "titleprocess", "title-process":
		return DomainTitleProcess, nil
	}
	d := KnowledgeDomain(name)
	if !d.IsValid() {
		return "", fmt.Errorf("%w: unknown knowledge domain %q", ErrInvalidInput, s)
	}
	return d, nil
}

// JoinTitleProcess builds the title_process phrase stored in the corpus.
func JoinTitleProcess(title, process string) string {
	return strings.TrimSpace(title) + TitleProcessSeparator + strings.TrimSpace(process)
}

// SplitTitleProcess splits a stored title_process phrase on the first
// separator. A phrase without a separator is returned as the title.
func SplitTitleProcess(phrase string) (title, process string) {
	title, process, _ = strings.Cut(phrase, TitleProcessSeparator)
	return title, process
}

// TitleProcessQuery is the text embedded when matching a title and process.
func TitleProcessQuery(title, process string) string {
	return strings.TrimSpace(title) + " " + strings.TrimSpace(process)
}

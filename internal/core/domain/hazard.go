package domain

import (
	"fmt"
	"strings"
	"time"
)

// Score bounds for severity and likelihood.
const (
	MinScore = 1
	MaxScore = 5
)

// StructuredHazardFields is one hazard suggestion returned to the form
// builder. Nil pointers mean the field could not be determined.
type StructuredHazardFields struct {
	Types            []string `json:"type"`
	Description      *string  `json:"description"`
	Injuries         []string `json:"injuries"`
	RiskType         *string  `json:"risk_type"`
	ExistingControls *string  `json:"existingControls"`
	Severity         *int     `json:"severity"`
	Likelihood       *int     `json:"likelihood"`
	RPN              *int     `json:"rpn"`
}

// KnownData is an approved hazard assessment keyed by form title,
// process name and activity name.
type KnownData struct {
	ID           int64     `json:"id" yaml:"-"`
	Title        string    `json:"title" yaml:"title"`
	Process      string    `json:"process" yaml:"process"`
	ActivityName string    `json:"activity_name" yaml:"activity_name"`
	HazardType   string    `json:"hazard_type" yaml:"hazard_type"`
	HazardDes    string    `json:"hazard_des" yaml:"hazard_des"`
	Injury       string    `json:"injury" yaml:"injury"`
	Control      string    `json:"control" yaml:"control"`
	RiskType     string    `json:"risk_type" yaml:"risk_type,omitempty"`
	Severity     int       `json:"severity" yaml:"severity"`
	Likelihood   int       `json:"likelihood" yaml:"likelihood"`
	RPN          int       `json:"rpn" yaml:"rpn,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
}

// ComputeRPN returns the risk priority number for a severity and likelihood.
func ComputeRPN(severity, likelihood int) int {
	return severity * likelihood
}

// ValidateScore checks a severity or likelihood value.
func ValidateScore(v int) error {
	if v < MinScore || v > MaxScore {
		return fmt.Errorf("%w: got %d", ErrInvalidScore, v)
	}
	return nil
}

// Normalise trims text fields and fills a missing RPN.
func (k *KnownData) Normalise() {
	k.Title = strings.TrimSpace(k.Title)
	k.Process = strings.TrimSpace(k.Process)
	k.ActivityName = strings.TrimSpace(k.ActivityName)
	k.HazardType = strings.TrimSpace(k.HazardType)
	k.HazardDes = strings.TrimSpace(k.HazardDes)
	k.Injury = strings.TrimSpace(k.Injury)
	k.Control = strings.TrimSpace(k.Control)
	k.RiskType = strings.TrimSpace(k.RiskType)
	if k.RPN == 0 {
		k.RPN = ComputeRPN(k.Severity, k.Likelihood)
	}
}

// Validate checks the record invariants: an activity name is present,
// both scores are in range and RPN equals severity times likelihood.
func (k *KnownData) Validate() error {
	if strings.TrimSpace(k.ActivityName) == "" {
		return fmt.Errorf("%w: activity name is required", ErrInvalidInput)
	}
	if err := ValidateScore(k.Severity); err != nil {
		return fmt.Errorf("severity: %w", err)
	}
	if err := ValidateScore(k.Likelihood); err != nil {
		return fmt.Errorf("likelihood: %w", err)
	}
	if want := ComputeRPN(k.Severity, k.Likelihood); k.RPN != want {
		return fmt.Errorf("%w: rpn %d does not equal severity x likelihood (%d)", ErrInvalidInput, k.RPN, want)
	}
	return nil
}

// HazardTypes splits the stored comma-separated hazard type.
func (k KnownData) HazardTypes() []string {
	if strings.TrimSpace(k.HazardType) == "" {
		return []string{}
	}
	parts := strings.Split(k.HazardType, ",")
	types := make([]string, 0, len(parts))
	for _, p := range parts {
		types = append(types, strings.TrimSpace(p))
	}
	return types
}

// Fields converts the record into the suggestion shape used on the reuse path.
func (k KnownData) Fields() StructuredHazardFields {
	f := StructuredHazardFields{
		Types:      k.HazardTypes(),
		Injuries:   []string{},
		Severity:   optionalInt(k.Severity),
		Likelihood: optionalInt(k.Likelihood),
		RPN:        optionalInt(k.RPN),
	}
	if k.HazardDes != "" {
		f.Description = strPtr(k.HazardDes)
	}
	if k.Injury != "" {
		f.Injuries = []string{k.Injury}
	}
	if k.RiskType != "" {
		f.RiskType = strPtr(k.RiskType)
	}
	if k.Control != "" {
		f.ExistingControls = strPtr(k.Control)
	}
	return f
}

// Phrase returns the corpus phrase this record contributes to a domain,
// or an empty string when it has nothing to add.
func (k KnownData) Phrase(d KnowledgeDomain) string {
	switch d {
	case DomainActivity:
		return strings.TrimSpace(k.ActivityName)
	case DomainHazard:
		return strings.TrimSpace(k.HazardDes)
	case DomainControl:
		return strings.TrimSpace(k.Control)
	case DomainInjury:
		return strings.TrimSpace(k.Injury)
	case DomainTitleProcess:
		if strings.TrimSpace(k.Title) == "" && strings.TrimSpace(k.Process) == "" {
			return ""
		}
		return JoinTitleProcess(k.Title, k.Process)
	default:
		return ""
	}
}

// HazardStatus is the review state of a submitted hazard.
type HazardStatus string

// Review states.
const (
	HazardStatusPending  HazardStatus = "pending"
	HazardStatusApproved HazardStatus = "approved"
	HazardStatusRejected HazardStatus = "rejected"
)

// IsValid returns true if the status is recognised.
func (s HazardStatus) IsValid() bool {
	switch s {
	case HazardStatusPending, HazardStatusApproved, HazardStatusRejected:
		return true
	default:
		return false
	}
}

// PendingHazard is a user-submitted hazard awaiting administrator review.
type PendingHazard struct {
	ID          string       `json:"id"`
	Record      KnownData    `json:"record"`
	Status      HazardStatus `json:"status"`
	SubmittedAt time.Time    `json:"submitted_at"`
	ReviewedAt  *time.Time   `json:"reviewed_at,omitempty"`
}

// AnnotatedField pairs a reviewable value with its novelty badge.
type AnnotatedField struct {
	Text   string      `json:"text"`
	Status FieldStatus `json:"status"`
}

// AnnotatedHazard is a pending hazard with each reviewable field marked
// new or old against its knowledge base.
type AnnotatedHazard struct {
	Pending  PendingHazard  `json:"pending"`
	Activity AnnotatedField `json:"activity"`
	Hazard   AnnotatedField `json:"hazard"`
	Control  AnnotatedField `json:"control"`
	Injury   AnnotatedField `json:"injury"`
}

// HasNovelField reports whether any field was judged new.
func (a AnnotatedHazard) HasNovelField() bool {
	for _, f := range []AnnotatedField{a.Activity, a.Hazard, a.Control, a.Injury} {
		if f.Status == FieldStatusNew {
			return true
		}
	}
	return false
}

// optionalInt treats zero as an unset database column.
func optionalInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func strPtr(s string) *string {
	return &s
}

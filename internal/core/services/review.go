package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driving"
	"github.com/custodia-labs/riskmatch/internal/logger"
)

// Ensure ReviewService implements the interface.
var _ driving.ReviewService = (*ReviewService)(nil)

// ReviewService runs the approval workflow and teaches the knowledge
// bases whatever an administrator approves.
type ReviewService struct {
	hazards    driven.HazardStore
	knownData  driven.KnownDataStore
	kb         *KnowledgeBase
	classifier *Classifier
	now        func() time.Time
}

// NewReviewService creates a new review service.
func NewReviewService(
	hazards driven.HazardStore,
	knownData driven.KnownDataStore,
	kb *KnowledgeBase,
	classifier *Classifier,
) *ReviewService {
	return &ReviewService{
		hazards:    hazards,
		knownData:  knownData,
		kb:         kb,
		classifier: classifier,
		now:        time.Now,
	}
}

// Submit validates a record and queues it for review.
func (s *ReviewService) Submit(ctx context.Context, record domain.KnownData) (*domain.PendingHazard, error) {
	record.Normalise()
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	pending := &domain.PendingHazard{
		ID:          uuid.New().String(),
		Record:      record,
		Status:      domain.HazardStatusPending,
		SubmittedAt: s.now(),
	}
	if err := s.hazards.Save(ctx, pending); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	logger.Debug("review: submitted %s (%q)", pending.ID, record.ActivityName)
	return pending, nil
}

// Pending lists hazards awaiting review with new/old badges on each field.
func (s *ReviewService) Pending(ctx context.Context) ([]domain.AnnotatedHazard, error) {
	pending, err := s.hazards.ListByStatus(ctx, domain.HazardStatusPending)
	if err != nil {
		return nil, fmt.Errorf("pending: %w", err)
	}

	annotated := make([]domain.AnnotatedHazard, 0, len(pending))
	for _, p := range pending {
		a, err := s.annotate(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("pending: %s: %w", p.ID, err)
		}
		annotated = append(annotated, a)
	}
	return annotated, nil
}

func (s *ReviewService) annotate(ctx context.Context, p domain.PendingHazard) (domain.AnnotatedHazard, error) {
	a := domain.AnnotatedHazard{Pending: p}

	fields := []struct {
		d   domain.KnowledgeDomain
		out *domain.AnnotatedField
	}{
		{domain.DomainActivity, &a.Activity},
		{domain.DomainHazard, &a.Hazard},
		{domain.DomainControl, &a.Control},
		{domain.DomainInjury, &a.Injury},
	}

	for _, f := range fields {
		text := p.Record.Phrase(f.d)
		f.out.Text = text
		if text == "" {
			f.out.Status = domain.FieldStatusOld
			continue
		}
		c, err := s.classifier.Classify(ctx, f.d, text)
		if err != nil {
			return domain.AnnotatedHazard{}, err
		}
		f.out.Status = c.Status()
	}
	return a, nil
}

// Approved lists approved records, most recent first.
func (s *ReviewService) Approved(ctx context.Context, limit int) ([]domain.KnownData, error) {
	records, err := s.knownData.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("approved: %w", err)
	}
	return records, nil
}

// Approve stores a pending hazard's record, learns its phrases, then
// marks it approved. The first failing step aborts; completed steps
// are not rolled back.
func (s *ReviewService) Approve(ctx context.Context, id string) error {
	logger.Section("Approve Hazard")

	pending, err := s.hazards.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("approve %s: %w", id, err)
	}
	if pending.Status != domain.HazardStatusPending {
		return fmt.Errorf("approve %s: %w (%s)", id, domain.ErrAlreadyReviewed, pending.Status)
	}

	if err := s.ApproveAndLearn(ctx, pending.Record); err != nil {
		return fmt.Errorf("approve %s: %w", id, err)
	}

	if err := s.hazards.UpdateStatus(ctx, id, domain.HazardStatusApproved); err != nil {
		return fmt.Errorf("approve %s: %w", id, err)
	}
	logger.Info("Approved hazard %s", id)
	return nil
}

// Reject marks a pending hazard rejected. Nothing is learned.
func (s *ReviewService) Reject(ctx context.Context, id string) error {
	pending, err := s.hazards.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("reject %s: %w", id, err)
	}
	if pending.Status != domain.HazardStatusPending {
		return fmt.Errorf("reject %s: %w (%s)", id, domain.ErrAlreadyReviewed, pending.Status)
	}
	if err := s.hazards.UpdateStatus(ctx, id, domain.HazardStatusRejected); err != nil {
		return fmt.Errorf("reject %s: %w", id, err)
	}
	logger.Info("Rejected hazard %s", id)
	return nil
}

// ApproveAndLearn persists record, then for each domain appends the
// record's phrase and rebuilds that domain's cache. Domains with no
// phrase in the record are skipped.
func (s *ReviewService) ApproveAndLearn(ctx context.Context, record domain.KnownData) error {
	record.Normalise()
	if err := record.Validate(); err != nil {
		return fmt.Errorf("learn: %w", err)
	}

	if err := s.knownData.Save(ctx, &record); err != nil {
		return fmt.Errorf("learn: save record: %w", err)
	}
	logger.Debug("learn: saved record %d", record.ID)

	for _, d := range domain.AllKnowledgeDomains() {
		phrase := record.Phrase(d)
		if phrase == "" {
			logger.Debug("learn: nothing to add to %s", d)
			continue
		}
		if err := s.kb.AppendAndRebuild(ctx, d, phrase); err != nil {
			return fmt.Errorf("learn: %w", err)
		}
	}
	return nil
}

// Import validates every record, stores them all, then learns their
// phrases with one rebuild per domain. No record is stored when any
// record is invalid. Returns the number of records stored.
func (s *ReviewService) Import(ctx context.Context, records []domain.KnownData) (int, error) {
	logger.Section("Import Known Data")

	for i := range records {
		records[i].Normalise()
		if err := records[i].Validate(); err != nil {
			return 0, fmt.Errorf("import: record %d: %w", i+1, err)
		}
	}

	phrases := make(map[domain.KnowledgeDomain][]string)
	for i := range records {
		if err := s.knownData.Save(ctx, &records[i]); err != nil {
			return i, fmt.Errorf("import: save record %d: %w", i+1, err)
		}
		for _, d := range domain.AllKnowledgeDomains() {
			if phrase := records[i].Phrase(d); phrase != "" {
				phrases[d] = append(phrases[d], phrase)
			}
		}
	}

	for _, d := range domain.AllKnowledgeDomains() {
		if len(phrases[d]) == 0 {
			continue
		}
		logger.Info("Learning %d %s phrases...", len(phrases[d]), d)
		if err := s.kb.AppendMany(ctx, d, phrases[d]); err != nil {
			return len(records), fmt.Errorf("import: %w", err)
		}
	}
	return len(records), nil
}

// Export returns every approved record, oldest first.
func (s *ReviewService) Export(ctx context.Context) ([]domain.KnownData, error) {
	records, err := s.knownData.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	slices.Reverse(records)
	return records, nil
}

package mcp

import (
	"context"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driving"
)

// mockHazardService is a mock implementation of driving.HazardService.
type mockHazardService struct {
	hazards        []domain.StructuredHazardFields
	activities     []string
	records        []domain.KnownData
	classification domain.Classification
	err            error
}

func (m *mockHazardService) Suggest(_ context.Context, _ string) ([]domain.StructuredHazardFields, error) {
	return m.hazards, m.err
}

func (m *mockHazardService) MatchedActivities(_ context.Context, _, _ string) ([]string, error) {
	return m.activities, m.err
}

func (m *mockHazardService) MatchedRecords(_ context.Context, _, _ string) ([]domain.KnownData, error) {
	return m.records, m.err
}

func (m *mockHazardService) IsNovel(_ context.Context, _ domain.KnowledgeDomain, _ string) (bool, error) {
	return m.classification.IsNovel(), m.err
}

func (m *mockHazardService) Classify(
	_ context.Context, d domain.KnowledgeDomain, text string,
) (domain.Classification, error) {
	c := m.classification
	c.Domain, c.Query = d, text
	return c, m.err
}

// mockReviewService is a mock implementation of driving.ReviewService.
type mockReviewService struct {
	pending  []domain.AnnotatedHazard
	approved []domain.KnownData
	reviewed map[string]domain.HazardStatus
	err      error
}

func (m *mockReviewService) Submit(_ context.Context, r domain.KnownData) (*domain.PendingHazard, error) {
	return &domain.PendingHazard{ID: "new", Record: r, Status: domain.HazardStatusPending}, m.err
}

func (m *mockReviewService) Pending(_ context.Context) ([]domain.AnnotatedHazard, error) {
	return m.pending, m.err
}

func (m *mockReviewService) Approved(_ context.Context, limit int) ([]domain.KnownData, error) {
	if limit > 0 && len(m.approved) > limit {
		return m.approved[:limit], m.err
	}
	return m.approved, m.err
}

func (m *mockReviewService) Approve(_ context.Context, id string) error {
	return m.mark(id, domain.HazardStatusApproved)
}

func (m *mockReviewService) Reject(_ context.Context, id string) error {
	return m.mark(id, domain.HazardStatusRejected)
}

func (m *mockReviewService) mark(id string, status domain.HazardStatus) error {
	if m.err != nil {
		return m.err
	}
	if m.reviewed == nil {
		m.reviewed = make(map[string]domain.HazardStatus)
	}
	m.reviewed[id] = status
	return nil
}

func (m *mockReviewService) ApproveAndLearn(_ context.Context, _ domain.KnownData) error {
	return m.err
}

func (m *mockReviewService) Import(_ context.Context, records []domain.KnownData) (int, error) {
	return len(records), m.err
}

func (m *mockReviewService) Export(_ context.Context) ([]domain.KnownData, error) {
	return m.approved, m.err
}

// mockKnowledgeService is a mock implementation of driving.KnowledgeService.
type mockKnowledgeService struct {
	stats []driving.DomainStats
	err   error
}

func (m *mockKnowledgeService) Reembed(_ context.Context, _ domain.KnowledgeDomain) error {
	return m.err
}

func (m *mockKnowledgeService) ReembedAll(_ context.Context) error {
	return m.err
}

func (m *mockKnowledgeService) Append(_ context.Context, _ domain.KnowledgeDomain, _ string) error {
	return m.err
}

func (m *mockKnowledgeService) Stats(_ context.Context) ([]driving.DomainStats, error) {
	return m.stats, m.err
}

func (m *mockKnowledgeService) Watch(ctx context.Context, _ func(driving.RebuildEvent)) error {
	<-ctx.Done()
	return m.err
}

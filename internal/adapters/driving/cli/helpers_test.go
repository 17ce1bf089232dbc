package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driving"
	"github.com/custodia-labs/riskmatch/internal/logger"
)

// execute runs the root command with args and returns everything it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

// executeWithInput is execute with stdin replaced by input.
func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	noColor := color.NoColor
	color.NoColor = true

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)

	t.Cleanup(func() {
		color.NoColor = noColor
		rootCmd.SetOut(os.Stdout)
		rootCmd.SetErr(os.Stderr)
		rootCmd.SetIn(os.Stdin)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
		logger.SetVerbose(false)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// withServices installs s for the duration of the test.
func withServices(t *testing.T, s Services) {
	t.Helper()
	SetServices(s)
	t.Cleanup(func() { SetServices(Services{}) })
}

type mockHazardService struct {
	suggest    func(ctx context.Context, activity string) ([]domain.StructuredHazardFields, error)
	activities func(ctx context.Context, title, process string) ([]string, error)
	records    func(ctx context.Context, title, process string) ([]domain.KnownData, error)
	classify   func(ctx context.Context, d domain.KnowledgeDomain, text string) (domain.Classification, error)

	lastActivity string
	lastTitle    string
	lastProcess  string
}

func (m *mockHazardService) Suggest(ctx context.Context, activity string) ([]domain.StructuredHazardFields, error) {
	m.lastActivity = activity
	if m.suggest != nil {
		return m.suggest(ctx, activity)
	}
	return []domain.StructuredHazardFields{}, nil
}

func (m *mockHazardService) MatchedActivities(ctx context.Context, title, process string) ([]string, error) {
	m.lastTitle, m.lastProcess = title, process
	if m.activities != nil {
		return m.activities(ctx, title, process)
	}
	return []string{}, nil
}

func (m *mockHazardService) MatchedRecords(ctx context.Context, title, process string) ([]domain.KnownData, error) {
	m.lastTitle, m.lastProcess = title, process
	if m.records != nil {
		return m.records(ctx, title, process)
	}
	return []domain.KnownData{}, nil
}

func (m *mockHazardService) IsNovel(ctx context.Context, d domain.KnowledgeDomain, text string) (bool, error) {
	c, err := m.Classify(ctx, d, text)
	return c.IsNovel(), err
}

func (m *mockHazardService) Classify(
	ctx context.Context, d domain.KnowledgeDomain, text string,
) (domain.Classification, error) {
	if m.classify != nil {
		return m.classify(ctx, d, text)
	}
	return domain.Classification{Domain: d, Query: text}, nil
}

type mockKnowledgeService struct {
	reembedded []domain.KnowledgeDomain
	appended   map[domain.KnowledgeDomain][]string
	stats      []driving.DomainStats
	reembedErr error
	events     []driving.RebuildEvent
}

func (m *mockKnowledgeService) Reembed(_ context.Context, d domain.KnowledgeDomain) error {
	if m.reembedErr != nil {
		return m.reembedErr
	}
	m.reembedded = append(m.reembedded, d)
	return nil
}

func (m *mockKnowledgeService) ReembedAll(ctx context.Context) error {
	for _, d := range domain.AllKnowledgeDomains() {
		if err := m.Reembed(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockKnowledgeService) Append(_ context.Context, d domain.KnowledgeDomain, phrase string) error {
	if strings.TrimSpace(phrase) == "" {
		return domain.ErrInvalidInput
	}
	if m.appended == nil {
		m.appended = make(map[domain.KnowledgeDomain][]string)
	}
	m.appended[d] = append(m.appended[d], phrase)
	return nil
}

func (m *mockKnowledgeService) Stats(context.Context) ([]driving.DomainStats, error) {
	return m.stats, nil
}

// Watch replays the scripted events and returns.
func (m *mockKnowledgeService) Watch(_ context.Context, onRebuild func(driving.RebuildEvent)) error {
	for _, e := range m.events {
		onRebuild(e)
	}
	return nil
}

type mockReviewService struct {
	submitted []domain.KnownData
	pending   []domain.AnnotatedHazard
	approved  []domain.KnownData
	imported  []domain.KnownData
	reviewed  map[string]domain.HazardStatus
	err       error
}

func (m *mockReviewService) Submit(_ context.Context, record domain.KnownData) (*domain.PendingHazard, error) {
	record.Normalise()
	if err := record.Validate(); err != nil {
		return nil, err
	}
	m.submitted = append(m.submitted, record)
	return &domain.PendingHazard{ID: "ph-1", Record: record, Status: domain.HazardStatusPending}, nil
}

func (m *mockReviewService) Pending(context.Context) ([]domain.AnnotatedHazard, error) {
	return m.pending, m.err
}

func (m *mockReviewService) Approved(_ context.Context, limit int) ([]domain.KnownData, error) {
	if limit > 0 && limit < len(m.approved) {
		return m.approved[:limit], nil
	}
	return m.approved, nil
}

func (m *mockReviewService) review(id string, status domain.HazardStatus) error {
	if m.reviewed == nil {
		m.reviewed = make(map[string]domain.HazardStatus)
	}
	if _, done := m.reviewed[id]; done {
		return domain.ErrAlreadyReviewed
	}
	m.reviewed[id] = status
	return nil
}

func (m *mockReviewService) Approve(_ context.Context, id string) error {
	return m.review(id, domain.HazardStatusApproved)
}

func (m *mockReviewService) Reject(_ context.Context, id string) error {
	return m.review(id, domain.HazardStatusRejected)
}

func (m *mockReviewService) ApproveAndLearn(_ context.Context, record domain.KnownData) error {
	m.approved = append(m.approved, record)
	return nil
}

func (m *mockReviewService) Import(_ context.Context, records []domain.KnownData) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.imported = append(m.imported, records...)
	return len(records), nil
}

func (m *mockReviewService) Export(context.Context) ([]domain.KnownData, error) {
	return m.approved, m.err
}

type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	saved       int
}

func newMockSettings() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	m.saved++
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	if !p.IsValid() {
		return domain.ErrInvalidInput
	}
	if model == "" {
		model = domain.DefaultEmbeddingModels()[p]
	}
	m.settings.Embedding.Provider, m.settings.Embedding.Model, m.settings.Embedding.APIKey = p, model, apiKey
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	if !p.IsValid() {
		return domain.ErrInvalidInput
	}
	if p.RequiresAPIKey() && apiKey == "" {
		return domain.ErrInvalidInput
	}
	if model == "" {
		model = domain.DefaultLLMModels()[p]
	}
	m.settings.LLM.Provider, m.settings.LLM.Model, m.settings.LLM.APIKey = p, model, apiKey
	return nil
}

func (m *mockSettingsService) SetThresholds(novelty, reuse float64) error {
	if err := domain.ValidateThreshold("novelty", novelty); err != nil {
		return err
	}
	if err := domain.ValidateThreshold("activity reuse", reuse); err != nil {
		return err
	}
	m.settings.Matching.NoveltyThreshold = novelty
	m.settings.Matching.ActivityReuseThreshold = reuse
	return nil
}

func (m *mockSettingsService) Validate() error                  { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings  { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error   { return m.validateErr }
func (m *mockSettingsService) ValidateLLMConfig() error         { return m.validateErr }

func strptr(s string) *string { return &s }
func intptr(v int) *int       { return &v }

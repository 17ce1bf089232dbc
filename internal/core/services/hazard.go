package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driving"
	"github.com/custodia-labs/riskmatch/internal/logger"
)

// Ensure HazardService implements the interface.
var _ driving.HazardService = (*HazardService)(nil)

// HazardService answers the form builder's matching requests.
// Each call runs embed, retrieve, decide, then fetch or generate, in order.
type HazardService struct {
	classifier  *Classifier
	synthesizer *Synthesizer
	knownData   driven.KnownDataStore
}

// NewHazardService creates a new hazard service.
func NewHazardService(
	classifier *Classifier,
	synthesizer *Synthesizer,
	knownData driven.KnownDataStore,
) *HazardService {
	return &HazardService{
		classifier:  classifier,
		synthesizer: synthesizer,
		knownData:   knownData,
	}
}

// Suggest returns hazard suggestions for a work activity.
func (s *HazardService) Suggest(ctx context.Context, activity string) ([]domain.StructuredHazardFields, error) {
	logger.Section("Hazard Suggestion")

	activity = strings.TrimSpace(activity)
	if activity == "" {
		return nil, fmt.Errorf("suggest: %w: blank activity", domain.ErrInvalidInput)
	}

	match, ok, err := s.classifier.BestMatch(ctx, domain.DomainActivity, activity)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}

	var rows []domain.KnownData
	if ok {
		logger.Debug("Context text: %q, similarity: %.4f", match.Phrase, match.Score)
		rows, err = s.knownData.FindByActivity(ctx, match.Phrase)
		if err != nil {
			return nil, fmt.Errorf("suggest: find records for %q: %w", match.Phrase, err)
		}

		if s.classifier.IsKnownScore(match.Score) {
			logger.Debug("Known activity, reusing %d stored records", len(rows))
			fields := make([]domain.StructuredHazardFields, 0, len(rows))
			for _, row := range rows {
				fields = append(fields, row.Fields())
			}
			return fields, nil
		}
	} else {
		logger.Debug("Activity corpus empty, generating without context")
	}

	hazards, err := s.synthesizer.Synthesize(ctx, activity, rows)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	return hazards, nil
}

// MatchedActivities suggests work activities for a title and process.
// A close title and process match returns the stored activity names;
// otherwise the language model proposes new ones.
func (s *HazardService) MatchedActivities(ctx context.Context, title, process string) ([]string, error) {
	logger.Section("Activity Matching")

	match, ok, err := s.matchTitleProcess(ctx, title, process)
	if err != nil {
		return nil, fmt.Errorf("matched activities: %w", err)
	}

	var names []string
	if ok {
		matchedTitle, matchedProcess := domain.SplitTitleProcess(match.Phrase)
		rows, err := s.knownData.FindByTitleProcess(ctx, matchedTitle, matchedProcess)
		if err != nil {
			return nil, fmt.Errorf("matched activities: %w", err)
		}
		names = uniqueActivityNames(rows)

		if s.classifier.ReuseActivities(match.Score) {
			logger.Debug("Reusing %d activities from %q (score %.4f)", len(names), match.Phrase, match.Score)
			return names, nil
		}
	}

	if !s.synthesizer.Available() {
		return nil, fmt.Errorf("matched activities: %w", domain.ErrLLMUnavailable)
	}

	activities, err := s.synthesizer.SuggestActivities(ctx, process)
	if err != nil {
		return nil, fmt.Errorf("matched activities: %w", err)
	}
	return activities, nil
}

// MatchedRecords returns the stored records behind the closest title and
// process match. An empty knowledge base returns no records.
func (s *HazardService) MatchedRecords(ctx context.Context, title, process string) ([]domain.KnownData, error) {
	match, ok, err := s.matchTitleProcess(ctx, title, process)
	if err != nil {
		return nil, fmt.Errorf("matched records: %w", err)
	}
	if !ok {
		return []domain.KnownData{}, nil
	}

	matchedTitle, matchedProcess := domain.SplitTitleProcess(match.Phrase)
	rows, err := s.knownData.FindByTitleProcess(ctx, matchedTitle, matchedProcess)
	if err != nil {
		return nil, fmt.Errorf("matched records: %w", err)
	}
	return rows, nil
}

// IsNovel reports whether text is new to the domain.
func (s *HazardService) IsNovel(ctx context.Context, d domain.KnowledgeDomain, text string) (bool, error) {
	c, err := s.Classify(ctx, d, text)
	if err != nil {
		return false, err
	}
	return c.IsNovel(), nil
}

// Classify exposes the classifier's decision and score.
func (s *HazardService) Classify(
	ctx context.Context, d domain.KnowledgeDomain, text string,
) (domain.Classification, error) {
	if !d.IsValid() {
		return domain.Classification{}, fmt.Errorf("classify: %w: domain %q", domain.ErrInvalidInput, d)
	}
	return s.classifier.Classify(ctx, d, text)
}

func (s *HazardService) matchTitleProcess(
	ctx context.Context, title, process string,
) (domain.Match, bool, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(process) == "" {
		return domain.Match{}, false, fmt.Errorf("%w: title or process is required", domain.ErrInvalidInput)
	}
	query := domain.TitleProcessQuery(title, process)
	return s.classifier.BestMatch(ctx, domain.DomainTitleProcess, query)
}

// uniqueActivityNames keeps the first occurrence of each activity name.
func uniqueActivityNames(rows []domain.KnownData) []string {
	seen := make(map[string]struct{}, len(rows))
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.ActivityName]; ok {
			continue
		}
		seen[row.ActivityName] = struct{}{}
		names = append(names, row.ActivityName)
	}
	return names
}

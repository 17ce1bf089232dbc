package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
	"github.com/custodia-labs/riskmatch/internal/logger"
)

// Ensure Synthesizer can take custom prompts.
var _ driven.PromptStoreAware = (*Synthesizer)(nil)

// defaultHazardSystemPrompt is the fallback when no PromptStore is configured.
const defaultHazardSystemPrompt = "You are a workplace safety and health risk assessor."

// defaultHazardAssessmentPrompt is the fallback hazard prompt.
// It pairs with the block parser: one "Hazard Type:" block per hazard.
//
//nolint:lll // Prompt content is intentionally long.
const defaultHazardAssessmentPrompt = `You are a workplace safety risk assessor.

Based on the new work activity: "%s", and considering similar past tasks:
%s

Please provide for each hazard identified in the work activity:
Hazard Type:
Hazard Description:
Possible Injuries:
Risk Control Type:
Risk Controls:
Severity Score:
Likelihood Score:
RPN:

Take note for hazard types just give the type of hazard, no need explanation or examples.
Take note for the severity score and likelihood score, its between 1 to 5, where 1 is the lowest and 5 is the highest.
Take note for the RPN, it is the product of severity score and likelihood score and just give the final number e.g. RPN: 9
Take note for the risk control type, it can be one type.
For example:
Hazard Type: Physical
Hazard Description: Working at heights without proper fall protection.
Possible Injuries: Falls leading to fractures or head injuries.
Risk Control Type: Engineering Controls
Risk Controls: Use of harnesses, guardrails, and safety nets.
Severity Score: 4
Likelihood Score: 4
RPN: 16`

// defaultActivitySystemPrompt is the fallback activity system message.
const defaultActivitySystemPrompt = "You are a risk assessor."

// defaultWorkActivitiesPrompt asks for a JSON list of three activities.
const defaultWorkActivitiesPrompt = `You are a risk assessor.

Based on this process: "%s",

Please provide 3 new potential work activities in a list format i.e. ["activity1", "activity2", "activity3"].`

// DefaultPrompts returns the built-in prompt for every prompt name.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptHazardSystem:     defaultHazardSystemPrompt,
		driven.PromptHazardAssessment: defaultHazardAssessmentPrompt,
		driven.PromptActivitySystem:   defaultActivitySystemPrompt,
		driven.PromptWorkActivities:   defaultWorkActivitiesPrompt,
	}
}

// Synthesizer generates structured hazard data for novel activities.
type Synthesizer struct {
	llm         driven.LLMService
	parser      driven.HazardReplyParser
	promptStore driven.PromptStore
}

// NewSynthesizer creates a synthesizer. llm may be nil, in which case
// every call returns domain.ErrLLMUnavailable.
func NewSynthesizer(llm driven.LLMService, parser driven.HazardReplyParser) *Synthesizer {
	return &Synthesizer{llm: llm, parser: parser}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *Synthesizer) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Available reports whether a language model is configured.
func (s *Synthesizer) Available() bool {
	return s.llm != nil
}

// Synthesize asks the language model for hazards in a new activity,
// supplying the closest stored records as examples. A reply with no
// recognisable hazard blocks returns an empty slice.
func (s *Synthesizer) Synthesize(
	ctx context.Context, activity string, examples []domain.KnownData,
) ([]domain.StructuredHazardFields, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	system := s.loadPrompt(driven.PromptHazardSystem, defaultHazardSystemPrompt)
	template := s.loadPrompt(driven.PromptHazardAssessment, defaultHazardAssessmentPrompt)
	prompt := fmt.Sprintf(template, activity, FormatExamples(examples))

	logger.Debug("synthesize: %d example rows for %q", len(examples), activity)

	reply, err := s.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		{Role: driven.RoleUser, Content: prompt},
	}, driven.ChatOptions{})
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	logger.Debug("synthesize: reply %d bytes", len(reply))

	hazards := s.parser.Parse(reply)
	if len(hazards) == 0 {
		logger.Warn("No hazards identified in model reply for %q", activity)
	}
	return hazards, nil
}

// SuggestActivities asks the language model for three new work
// activities for a process. An unparseable reply yields an empty slice.
func (s *Synthesizer) SuggestActivities(ctx context.Context, process string) ([]string, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	system := s.loadPrompt(driven.PromptActivitySystem, defaultActivitySystemPrompt)
	template := s.loadPrompt(driven.PromptWorkActivities, defaultWorkActivitiesPrompt)

	reply, err := s.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		{Role: driven.RoleUser, Content: fmt.Sprintf(template, process)},
	}, driven.ChatOptions{})
	if err != nil {
		return nil, fmt.Errorf("suggest activities: %w", err)
	}

	activities, err := ParseActivityList(reply)
	if err != nil {
		logger.Warn("Failed to parse activity list: %v", err)
		logger.Debug("activity reply was: %s", reply)
		return []string{}, nil
	}
	return activities, nil
}

// ParseActivityList decodes a JSON string array from a model reply.
// Text around the first [...] span, such as code fences, is ignored.
func ParseActivityList(reply string) ([]string, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON list in reply", domain.ErrInvalidInput)
	}

	var raw []string
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	activities := make([]string, 0, len(raw))
	for _, a := range raw {
		if a = strings.TrimSpace(a); a != "" {
			activities = append(activities, a)
		}
	}
	return activities, nil
}

// FormatExamples renders stored records as prompt context, one per line.
func FormatExamples(examples []domain.KnownData) string {
	if len(examples) == 0 {
		return "(none)"
	}

	var b strings.Builder
	for i, k := range examples {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b,
			"- Activity: %s; Hazard Type: %s; Hazard Description: %s; Possible Injuries: %s; "+
				"Risk Control Type: %s; Risk Controls: %s; Severity Score: %d; Likelihood Score: %d; RPN: %d",
			k.ActivityName, k.HazardType, k.HazardDes, k.Injury,
			k.RiskType, k.Control, k.Severity, k.Likelihood, k.RPN)
	}
	return b.String()
}

func (s *Synthesizer) loadPrompt(name, fallback string) string {
	if s.promptStore == nil {
		return fallback
	}
	prompt, err := s.promptStore.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		logger.Debug("prompt %q unavailable, using built-in: %v", name, err)
		return fallback
	}
	return prompt
}

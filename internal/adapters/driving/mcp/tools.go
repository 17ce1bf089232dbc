package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/logger"
)

// SuggestHazardsInput is the input schema for the suggest_hazards tool.
type SuggestHazardsInput struct {
	Activity string `json:"activity" jsonschema:"the work activity to assess, e.g. 'grinding steel plates'"`
}

// SuggestHazardsOutput is the output schema for the suggest_hazards tool.
// Error carries the failure note when no suggestion could be produced.
type SuggestHazardsOutput struct {
	Hazards []HazardOutput `json:"hazards"`
	Count   int            `json:"count"`
	Error   string         `json:"error,omitempty"`
}

// HazardOutput is one suggested hazard.
type HazardOutput struct {
	Types            []string `json:"type"`
	Description      string   `json:"description,omitempty"`
	Injuries         []string `json:"injuries"`
	RiskType         string   `json:"risk_type,omitempty"`
	ExistingControls string   `json:"existing_controls,omitempty"`
	Severity         int      `json:"severity,omitempty"`
	Likelihood       int      `json:"likelihood,omitempty"`
	RPN              int      `json:"rpn,omitempty"`
}

// MatchActivitiesInput is the input schema for the match_activities tool.
type MatchActivitiesInput struct {
	Title   string `json:"title" jsonschema:"the risk assessment form title"`
	Process string `json:"process" jsonschema:"the process name within the form"`
	DBOnly  bool   `json:"db_only,omitempty" jsonschema:"return stored records only, never generate new activities"`
}

// MatchActivitiesOutput is the output schema for the match_activities tool.
type MatchActivitiesOutput struct {
	Activities []string       `json:"activities"`
	Records    []RecordOutput `json:"records,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// RecordOutput is a stored hazard assessment.
type RecordOutput struct {
	Title        string `json:"title"`
	Process      string `json:"process"`
	ActivityName string `json:"activity_name"`
	HazardType   string `json:"hazard_type"`
	HazardDes    string `json:"hazard_des"`
	Injury       string `json:"injury"`
	Control      string `json:"control"`
	RiskType     string `json:"risk_type,omitempty"`
	Severity     int    `json:"severity"`
	Likelihood   int    `json:"likelihood"`
	RPN          int    `json:"rpn"`
}

// CheckNoveltyInput is the input schema for the check_novelty tool.
type CheckNoveltyInput struct {
	Domain string `json:"domain" jsonschema:"knowledge base to check: activity, hazard, control, injury or title_process"`
	Text   string `json:"text" jsonschema:"the phrase to classify"`
}

// CheckNoveltyOutput is the output schema for the check_novelty tool.
type CheckNoveltyOutput struct {
	Domain    string  `json:"domain"`
	Status    string  `json:"status"`
	IsNew     bool    `json:"is_new"`
	Score     float64 `json:"score"`
	BestMatch string  `json:"best_match,omitempty"`
}

// ListPendingInput is the input schema for the list_pending_hazards tool.
type ListPendingInput struct{}

// ListPendingOutput is the output schema for the list_pending_hazards tool.
type ListPendingOutput struct {
	Hazards []PendingOutput `json:"hazards"`
	Count   int             `json:"count"`
}

// PendingOutput is a pending hazard with per-field new/old badges.
type PendingOutput struct {
	ID          string       `json:"id"`
	SubmittedAt string       `json:"submitted_at"`
	Record      RecordOutput `json:"record"`
	Activity    string       `json:"activity_status"`
	Hazard      string       `json:"hazard_status"`
	Control     string       `json:"control_status"`
	Injury      string       `json:"injury_status"`
}

// ReviewInput is the input schema for approve_hazard and reject_hazard.
type ReviewInput struct {
	ID string `json:"id" jsonschema:"the pending hazard ID"`
}

// ReviewOutput is the output schema for approve_hazard and reject_hazard.
type ReviewOutput struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "suggest_hazards",
		Description: "Suggest hazards, injuries and controls for a work activity",
	}, s.handleSuggestHazards)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "match_activities",
		Description: "Suggest work activities for a form title and process",
	}, s.handleMatchActivities)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "check_novelty",
		Description: "Check whether a phrase is new to one of the knowledge bases",
	}, s.handleCheckNovelty)

	if s.ports.Review == nil {
		return
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_pending_hazards",
		Description: "List submitted hazards awaiting administrator review",
	}, s.handleListPending)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "approve_hazard",
		Description: "Approve a pending hazard and add it to the knowledge bases",
	}, s.handleApprove)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reject_hazard",
		Description: "Reject a pending hazard without learning from it",
	}, s.handleReject)
}

// handleSuggestHazards fails closed: provider errors become an empty
// list with a note rather than a protocol error.
func (s *Server) handleSuggestHazards(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SuggestHazardsInput,
) (*mcp.CallToolResult, SuggestHazardsOutput, error) {
	output := SuggestHazardsOutput{Hazards: []HazardOutput{}}

	hazards, err := s.ports.Hazard.Suggest(ctx, input.Activity)
	if err != nil {
		logger.Warn("mcp: suggest_hazards %q: %v", input.Activity, err)
		output.Error = err.Error()
		return nil, output, nil
	}

	for i := range hazards {
		output.Hazards = append(output.Hazards, toHazardOutput(hazards[i]))
	}
	output.Count = len(output.Hazards)
	return nil, output, nil
}

func (s *Server) handleMatchActivities(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MatchActivitiesInput,
) (*mcp.CallToolResult, MatchActivitiesOutput, error) {
	output := MatchActivitiesOutput{Activities: []string{}}

	if input.DBOnly {
		records, err := s.ports.Hazard.MatchedRecords(ctx, input.Title, input.Process)
		if err != nil {
			logger.Warn("mcp: match_activities db_only: %v", err)
			output.Error = err.Error()
			return nil, output, nil
		}
		seen := make(map[string]bool)
		for i := range records {
			output.Records = append(output.Records, toRecordOutput(records[i]))
			if name := records[i].ActivityName; !seen[name] {
				seen[name] = true
				output.Activities = append(output.Activities, name)
			}
		}
		return nil, output, nil
	}

	activities, err := s.ports.Hazard.MatchedActivities(ctx, input.Title, input.Process)
	if err != nil {
		logger.Warn("mcp: match_activities: %v", err)
		output.Error = err.Error()
		return nil, output, nil
	}
	output.Activities = append(output.Activities, activities...)
	return nil, output, nil
}

func (s *Server) handleCheckNovelty(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CheckNoveltyInput,
) (*mcp.CallToolResult, CheckNoveltyOutput, error) {
	d, err := domain.ParseKnowledgeDomain(input.Domain)
	if err != nil {
		return nil, CheckNoveltyOutput{}, err
	}

	c, err := s.ports.Hazard.Classify(ctx, d, input.Text)
	if err != nil {
		return nil, CheckNoveltyOutput{}, fmt.Errorf("classifying %s: %w", d, err)
	}

	return nil, CheckNoveltyOutput{
		Domain:    d.String(),
		Status:    string(c.Status()),
		IsNew:     c.IsNovel(),
		Score:     c.Score,
		BestMatch: c.BestMatch,
	}, nil
}

func (s *Server) handleListPending(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListPendingInput,
) (*mcp.CallToolResult, ListPendingOutput, error) {
	pending, err := s.ports.Review.Pending(ctx)
	if err != nil {
		return nil, ListPendingOutput{}, err
	}

	output := ListPendingOutput{Hazards: make([]PendingOutput, len(pending))}
	for i := range pending {
		p := pending[i]
		output.Hazards[i] = PendingOutput{
			ID:          p.Pending.ID,
			SubmittedAt: p.Pending.SubmittedAt.UTC().Format(time.RFC3339),
			Record:      toRecordOutput(p.Pending.Record),
			Activity:    string(p.Activity.Status),
			Hazard:      string(p.Hazard.Status),
			Control:     string(p.Control.Status),
			Injury:      string(p.Injury.Status),
		}
	}
	output.Count = len(pending)
	return nil, output, nil
}

func (s *Server) handleApprove(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReviewInput,
) (*mcp.CallToolResult, ReviewOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, ReviewOutput{}, err
	}
	if err := s.ports.Review.Approve(ctx, id); err != nil {
		return nil, ReviewOutput{}, reviewError(err)
	}
	return nil, ReviewOutput{ID: id, Status: string(domain.HazardStatusApproved)}, nil
}

func (s *Server) handleReject(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReviewInput,
) (*mcp.CallToolResult, ReviewOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, ReviewOutput{}, err
	}
	if err := s.ports.Review.Reject(ctx, id); err != nil {
		return nil, ReviewOutput{}, reviewError(err)
	}
	return nil, ReviewOutput{ID: id, Status: string(domain.HazardStatusRejected)}, nil
}

func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}
	return id, nil
}

// reviewError rewrites review sentinels into messages an assistant can act on.
func reviewError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("no pending hazard with that id: %w", err)
	case errors.Is(err, domain.ErrAlreadyReviewed):
		return fmt.Errorf("hazard was already reviewed: %w", err)
	default:
		return err
	}
}

func toHazardOutput(h domain.StructuredHazardFields) HazardOutput {
	out := HazardOutput{
		Types:    h.Types,
		Injuries: h.Injuries,
	}
	if out.Types == nil {
		out.Types = []string{}
	}
	if out.Injuries == nil {
		out.Injuries = []string{}
	}
	if h.Description != nil {
		out.Description = *h.Description
	}
	if h.RiskType != nil {
		out.RiskType = *h.RiskType
	}
	if h.ExistingControls != nil {
		out.ExistingControls = *h.ExistingControls
	}
	if h.Severity != nil {
		out.Severity = *h.Severity
	}
	if h.Likelihood != nil {
		out.Likelihood = *h.Likelihood
	}
	if h.RPN != nil {
		out.RPN = *h.RPN
	}
	return out
}

func toRecordOutput(k domain.KnownData) RecordOutput {
	return RecordOutput{
		Title:        k.Title,
		Process:      k.Process,
		ActivityName: k.ActivityName,
		HazardType:   k.HazardType,
		HazardDes:    k.HazardDes,
		Injury:       k.Injury,
		Control:      k.Control,
		RiskType:     k.RiskType,
		Severity:     k.Severity,
		Likelihood:   k.Likelihood,
		RPN:          k.RPN,
	}
}

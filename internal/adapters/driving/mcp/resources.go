package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for riskmatch resources.
	uriScheme = "riskmatch://"

	// approvedResourceLimit caps the approved records resource.
	approvedResourceLimit = 50
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "kb/stats",
		Name:        "kb-stats",
		Description: "Phrase and embedding counts for each knowledge base",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	if s.ports.Review != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "records/approved",
			Name:        "approved-records",
			Description: "Most recently approved hazard assessments",
			MIMEType:    "application/json",
		}, s.handleApprovedResource)
	}
}

// handleStatsResource reports each domain's corpus and cache sizes.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Knowledge == nil {
		return jsonResource(req.Params.URI, []any{})
	}

	stats, err := s.ports.Knowledge.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge base stats: %w", err)
	}

	type domainInfo struct {
		Domain      string `json:"domain"`
		Phrases     int    `json:"phrases"`
		Embeddings  int    `json:"embeddings"`
		CacheExists bool   `json:"cache_exists"`
		Model       string `json:"model,omitempty"`
		InSync      bool   `json:"in_sync"`
	}

	infos := make([]domainInfo, len(stats))
	for i, st := range stats {
		infos[i] = domainInfo{
			Domain:      st.Domain.String(),
			Phrases:     st.Phrases,
			Embeddings:  st.Embeddings,
			CacheExists: st.CacheExists,
			Model:       st.Model,
			InSync:      st.InSync(),
		}
	}
	return jsonResource(req.Params.URI, infos)
}

func (s *Server) handleApprovedResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	records, err := s.ports.Review.Approved(ctx, approvedResourceLimit)
	if err != nil {
		return nil, fmt.Errorf("listing approved records: %w", err)
	}

	out := make([]RecordOutput, len(records))
	for i := range records {
		out[i] = toRecordOutput(records[i])
	}
	return jsonResource(req.Params.URI, out)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

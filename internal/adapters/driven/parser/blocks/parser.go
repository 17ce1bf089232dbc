// Package blocks parses "Hazard Type:" blocks out of free-text model replies.
package blocks

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.HazardReplyParser = (*Parser)(nil)

var (
	blockStart     = regexp.MustCompile(`\bHazard Type:\s*`)
	descriptionRe  = regexp.MustCompile(`Hazard Description:[ \t]*(.*)`)
	injuriesRe     = regexp.MustCompile(`Possible Injuries:[ \t]*(.*)`)
	controlTypeRe  = regexp.MustCompile(`Risk Control Type:[ \t]*(.*)`)
	controlsRe     = regexp.MustCompile(`Risk Controls:[ \t]*(.*)`)
	severityRe     = regexp.MustCompile(`Severity Score:\s*(\d+)`)
	likelihoodRe   = regexp.MustCompile(`Likelihood Score:\s*(\d+)`)
	rpnRe          = regexp.MustCompile(`RPN:\s*(\d+)`)
	markdownMarker = strings.NewReplacer("**", "", "__", "")
)

// Parser reads replies written in the hazard assessment format:
//
//	Hazard Type: Physical
//	Hazard Description: ...
//	Possible Injuries: ...
//	Risk Control Type: ...
//	Risk Controls: ...
//	Severity Score: 4
//	Likelihood Score: 4
//	RPN: 16
//
// Every "Hazard Type:" starts a new record. Fields that are missing
// from a block are left nil or empty.
type Parser struct{}

// New creates a block parser.
func New() *Parser {
	return &Parser{}
}

// Parse returns one record per hazard block, in reply order.
func (p *Parser) Parse(reply string) []domain.StructuredHazardFields {
	reply = markdownMarker.Replace(reply)

	parts := blockStart.Split(reply, -1)
	if len(parts) < 2 {
		return []domain.StructuredHazardFields{}
	}

	hazards := make([]domain.StructuredHazardFields, 0, len(parts)-1)
	for _, block := range parts[1:] {
		hazards = append(hazards, parseBlock(block))
	}
	return hazards
}

func parseBlock(block string) domain.StructuredHazardFields {
	firstLine, _, _ := strings.Cut(block, "\n")

	fields := domain.StructuredHazardFields{
		Types:       splitTypes(firstLine),
		Description: matchText(descriptionRe, block),
		Injuries:    []string{},
		Severity:    matchInt(severityRe, block),
		Likelihood:  matchInt(likelihoodRe, block),
		RPN:         matchInt(rpnRe, block),
	}

	if injuries := matchText(injuriesRe, block); injuries != nil {
		fields.Injuries = []string{*injuries}
	}

	controls := matchText(controlsRe, block)
	fields.ExistingControls = controls
	fields.RiskType = matchText(controlTypeRe, block)
	if fields.RiskType == nil {
		fields.RiskType = controls
	}
	return fields
}

func splitTypes(line string) []string {
	parts := strings.Split(strings.TrimSpace(line), ",")
	types := make([]string, 0, len(parts))
	for _, t := range parts {
		types = append(types, strings.TrimSpace(t))
	}
	return types
}

func matchText(re *regexp.Regexp, block string) *string {
	m := re.FindStringSubmatch(block)
	if m == nil {
		return nil
	}
	s := strings.TrimSpace(m[1])
	return &s
}

func matchInt(re *regexp.Regexp, block string) *int {
	m := re.FindStringSubmatch(block)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

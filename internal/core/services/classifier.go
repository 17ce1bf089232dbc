package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/logger"
)

// Classification thresholds. They answer different questions and are
// tuned separately; do not merge them.
const (
	// NoveltyThreshold: a best-match score <= this is novel.
	// Set low so only near-duplicates skip human review.
	NoveltyThreshold = domain.DefaultNoveltyThreshold

	// ActivityReuseThreshold: a title and process score >= this reuses
	// the historical activities instead of generating new ones.
	ActivityReuseThreshold = domain.DefaultActivityReuseThreshold
)

// Classifier decides whether a phrase is already known to a domain.
type Classifier struct {
	kb        *KnowledgeBase
	retriever *Retriever

	noveltyThreshold float64
	reuseThreshold   float64
}

// NewClassifier creates a classifier using the default thresholds.
func NewClassifier(kb *KnowledgeBase, retriever *Retriever) *Classifier {
	return &Classifier{
		kb:               kb,
		retriever:        retriever,
		noveltyThreshold: NoveltyThreshold,
		reuseThreshold:   ActivityReuseThreshold,
	}
}

// SetThresholds overrides both thresholds. Each must lie in (0, 1];
// otherwise neither is changed.
func (c *Classifier) SetThresholds(novelty, activityReuse float64) error {
	if err := domain.ValidateThreshold("novelty", novelty); err != nil {
		return err
	}
	if err := domain.ValidateThreshold("activity reuse", activityReuse); err != nil {
		return err
	}
	c.noveltyThreshold = novelty
	c.reuseThreshold = activityReuse
	return nil
}

// NoveltyThreshold returns the active novelty threshold.
func (c *Classifier) NoveltyThreshold() float64 {
	return c.noveltyThreshold
}

// ActivityReuseThreshold returns the active activity reuse threshold.
func (c *Classifier) ActivityReuseThreshold() float64 {
	return c.reuseThreshold
}

// IsKnownScore applies the novelty rule: score > threshold is known.
func (c *Classifier) IsKnownScore(score float64) bool {
	return score > c.noveltyThreshold
}

// ReuseActivities applies the activity rule: score >= threshold reuses.
func (c *Classifier) ReuseActivities(score float64) bool {
	return score >= c.reuseThreshold
}

// BestMatch returns the closest phrase in the domain. ok is false when
// the domain has no phrases yet.
func (c *Classifier) BestMatch(
	ctx context.Context, d domain.KnowledgeDomain, query string,
) (match domain.Match, ok bool, err error) {
	phrases, vectors, err := c.kb.LoadOrBuild(ctx, d)
	if err != nil {
		return domain.Match{}, false, err
	}
	if len(phrases) == 0 {
		return domain.Match{}, false, nil
	}

	matches, err := c.retriever.TopK(ctx, query, phrases, vectors, 1)
	if err != nil {
		return domain.Match{}, false, err
	}
	return matches[0], true, nil
}

// Classify compares query with the domain's closest phrase.
// A blank query is rejected. A domain with no phrases classifies
// everything as novel with a zero score.
func (c *Classifier) Classify(
	ctx context.Context, d domain.KnowledgeDomain, query string,
) (domain.Classification, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Classification{}, fmt.Errorf("classify: %w: blank query", domain.ErrInvalidInput)
	}

	result := domain.Classification{Domain: d, Query: query}

	match, ok, err := c.BestMatch(ctx, d, query)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classify: %w", err)
	}
	if !ok {
		logger.Debug("classify: %s corpus empty, %q is new", d, query)
		return result, nil
	}

	result.BestMatch = match.Phrase
	result.Score = match.Score
	result.IsKnown = c.IsKnownScore(match.Score)

	logger.Debug("classify: domain=%s score=%.4f known=%v match=%q", d, match.Score, result.IsKnown, match.Phrase)
	return result, nil
}

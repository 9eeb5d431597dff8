package categorize

import (
	"context"

	"github.com/dvloznov/expense-coach/internal/domain"
	"github.com/dvloznov/expense-coach/internal/logger"
)

// Classifier is the AI-backed half of the resolver.
type Classifier interface {
	Classify(ctx context.Context, description string) (domain.Category, error)
}

// Resolver picks a category for every description: AI first when one is
// configured, keyword rules otherwise or on any AI failure.
type Resolver struct {
	ai    Classifier
	rules *RuleClassifier
}

// NewResolver builds a resolver. ai may be nil when no credentials are present.
func NewResolver(ai Classifier, rules *RuleClassifier) *Resolver {
	if rules == nil {
		rules = NewRuleClassifier()
	}
	return &Resolver{ai: ai, rules: rules}
}

// Resolve always returns a member of the fixed category set.
func (r *Resolver) Resolve(ctx context.Context, description string) domain.Category {
	log := logger.FromContext(ctx)

	if r.ai != nil {
		category, err := r.ai.Classify(ctx, description)
		if err == nil {
			log.Debug().Str("source", "ai").Str("category", category.String()).Msg("Resolved category")
			return category
		}
		log.Warn().Err(err).Str("source", "rules").Msg("AI classification failed, falling back to rules")
	}

	category := r.rules.Classify(description)
	log.Debug().Str("source", "rules").Str("category", category.String()).Msg("Resolved category")
	return category
}

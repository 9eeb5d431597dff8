package categorize

import (
	"regexp"
	"strings"

	"github.com/dvloznov/expense-coach/internal/domain"
)

type rule struct {
	category domain.Category
	pattern  *regexp.Regexp
}

// Rules are tried in order; the first match wins.
var defaultRules = []rule{
	{domain.CategoryEntertainment, regexp.MustCompile(`\b(cinema|movies?|concerts?|shows?|theat(er|re)|netflix|spotify|games?|gaming|museum|festival)\b`)},
	{domain.CategoryTravel, regexp.MustCompile(`\b(flights?|hotels?|taxi|uber|lyft|trains?|bus|buses|airbnb|airline|airport|metro|subway|fuel|petrol|gas station|parking)\b`)},
	{domain.CategoryFoodAndDrink, regexp.MustCompile(`\b(restaurants?|coffee|cafe|pizza|drinks?|meals?|food|lunch|dinner|breakfast|groceries|grocery|bar|pub|bakery|burger|sushi|takeaway)\b`)},
	{domain.CategoryClothes, regexp.MustCompile(`\b(shirts?|t-shirts?|pants|trousers|shoes|sneakers|clothes|clothing|jackets?|coat|dress|jeans|socks)\b`)},
	{domain.CategoryAppliances, regexp.MustCompile(`\b(fridge|refrigerator|tv|television|microwave|appliances?|washing machine|dishwasher|oven|vacuum|kettle|toaster|blender)\b`)},
	{domain.CategoryServices, regexp.MustCompile(`\b(cleaning|cleaner|repairs?|services?|subscriptions?|plumber|electrician|haircut|barber|laundry|insurance|internet|phone bill)\b`)},
}

// RuleClassifier maps a description to a category with fixed keyword rules.
// It never fails.
type RuleClassifier struct {
	rules []rule
}

// NewRuleClassifier returns a classifier using the built-in keyword rules.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{rules: defaultRules}
}

// Classify returns the category of the first matching rule, or Other.
func (c *RuleClassifier) Classify(description string) domain.Category {
	text := strings.ToLower(description)
	for _, r := range c.rules {
		if r.pattern.MatchString(text) {
			return r.category
		}
	}
	return domain.CategoryOther
}

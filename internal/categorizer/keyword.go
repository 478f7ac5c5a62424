package categorizer

import (
	"strings"

	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/models"
)

// KeywordStrategy matches case-folded keywords against the message text.
// Rules are tried in order; the first rule with any matching keyword wins.
type KeywordStrategy struct {
	rules  []models.CategoryConfig
	logger logging.Logger
}

// NewKeywordStrategy creates a KeywordStrategy over a copy of rules with keywords
// folded to lower case. Blank keywords are dropped since they would match everything.
func NewKeywordStrategy(rules []models.CategoryConfig, logger logging.Logger) *KeywordStrategy {
	if logger == nil {
		logger = logging.GetLogger()
	}
	folded := make([]models.CategoryConfig, 0, len(rules))
	for _, rule := range rules {
		if strings.TrimSpace(rule.Name) == "" {
			continue
		}
		keywords := make([]string, 0, len(rule.Keywords))
		for _, k := range rule.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		folded = append(folded, models.CategoryConfig{Name: rule.Name, Keywords: keywords})
	}
	return &KeywordStrategy{rules: folded, logger: logger}
}

// Name returns the name of this strategy for logging and debugging.
func (s *KeywordStrategy) Name() string {
	return "Keyword"
}

// Categorize returns the first rule whose keyword occurs in text.
func (s *KeywordStrategy) Categorize(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, rule := range s.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				s.logger.Debug("Message categorized using keyword matching",
					logging.Field{Key: "strategy", Value: s.Name()},
					logging.Field{Key: "keyword", Value: keyword},
					logging.Field{Key: logging.FieldCategory, Value: rule.Name})
				return rule.Name, true
			}
		}
	}
	return "", false
}

// Rules returns a copy of the folded rules in evaluation order.
func (s *KeywordStrategy) Rules() []models.CategoryConfig {
	out := make([]models.CategoryConfig, len(s.rules))
	for i, r := range s.rules {
		out[i] = models.CategoryConfig{Name: r.Name, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

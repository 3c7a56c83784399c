package classifier

import (
	"context"
	"strings"
)

// KeywordClassifier is a deterministic fallback used when no model service is
// configured. It scans for category keywords and answers "other" otherwise.
type KeywordClassifier struct {
	keywords []keywordRule
}

type keywordRule struct {
	label string
	terms []string
}

// NewKeywordClassifier builds the fallback classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		keywords: []keywordRule{
			{"road", []string{"pothole", "road", "asphalt", "pavement", "footpath"}},
			{"garbage", []string{"garbage", "trash", "waste", "dump", "litter"}},
			{"water", []string{"water", "leak", "pipeline", "pipe burst", "tap"}},
			{"electricity", []string{"electric", "power", "wire", "transformer", "outage"}},
			{"drainage", []string{"drain", "sewage", "sewer", "overflow", "manhole"}},
			{"street_light", []string{"street light", "streetlight", "lamp post", "lamppost"}},
			{"pollution", []string{"pollution", "smoke", "smog", "noise", "fumes"}},
			{"traffic", []string{"traffic", "signal", "jam", "congestion", "zebra crossing"}},
		},
	}
}

// Classify returns the first category whose keyword appears in the text.
func (k *KeywordClassifier) Classify(_ context.Context, description string) (string, error) {
	lowered := strings.ToLower(description)
	for _, rule := range k.keywords {
		for _, term := range rule.terms {
			if strings.Contains(lowered, term) {
				return rule.label, nil
			}
		}
	}
	return "other", nil
}

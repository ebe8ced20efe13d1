package qa

import "strings"

// enhancementRules bias the question embedding toward the vocabulary used in
// stored metadata headers. Every rule whose trigger matches appends its
// keywords; the displayed question is never changed.
var enhancementRules = []struct {
	triggers []string
	keywords string
}{
	{triggers: []string{"bill"}, keywords: " utility invoice payment amount cost"},
	{triggers: []string{"oak", "street", "property"}, keywords: " property address location"},
}

// EnhanceQuestion appends domain keywords for retrieval. Matching is
// case-insensitive substring; multiple rules fire cumulatively.
func EnhanceQuestion(question string) string {
	lower := strings.ToLower(question)
	enhanced := question
	for _, rule := range enhancementRules {
		for _, trigger := range rule.triggers {
			if strings.Contains(lower, trigger) {
				enhanced += rule.keywords
				break
			}
		}
	}
	return enhanced
}

package domain

import "strings"

// The keyword tables below are shared between the response parsers and
// the deterministic fallback generator. Keeping them in one place means
// a fallback response can never drift out of sync with the parser that
// consumes it.

var (
	flaggedKeywords     = []string{"FLAGGED", "HIGH RISK"}
	investigateKeywords = []string{"INVESTIGATE", "SUSPICIOUS"}
	nonFraudKeywords    = []string{"NON_FRAUD", "NORMAL", "LOW RISK"}

	// narrativeTriggers raise the investigator's risk score when they
	// appear in the oracle narrative.
	narrativeTriggers = []string{"HIGH", "FRAUD"}

	// escalationPhrases in a review response force case creation.
	escalationPhrases = []string{"create case", "investigate"}
)

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// MatchCategory maps free-form oracle text to a classification category
// by case-insensitive substring search, checked in priority order.
// Returns false when no recognizable keyword is present.
func MatchCategory(response string) (Category, bool) {
	upper := strings.ToUpper(response)
	switch {
	case containsAny(upper, flaggedKeywords):
		return CategoryFlagged, true
	case containsAny(upper, investigateKeywords):
		return CategoryInvestigate, true
	case containsAny(upper, nonFraudKeywords):
		return CategoryNonFraud, true
	default:
		return "", false
	}
}

// NarrativeTriggered reports whether a narrative contains a risk
// trigger keyword.
func NarrativeTriggered(narrative string) bool {
	return containsAny(strings.ToUpper(narrative), narrativeTriggers)
}

// EscalationRequested reports whether a review response asks for a case
// to be created.
func EscalationRequested(response string) bool {
	return containsAny(strings.ToLower(response), escalationPhrases)
}

const classificationFallback = `Classification: FLAGGED - High Risk

Reasoning:
1. Elevated ML score indicating a suspicious transfer pattern
2. Transfer amount exceeding the customer's established average
3. Beneficiary country outside the customer's typical corridor
4. Velocity indicators present on recent account activity

Recommendation: FLAG for immediate investigation.`

// narrativeFallback deliberately avoids every narrative trigger keyword
// so an unavailable oracle never inflates the investigator's risk score.
const narrativeFallback = `Deep Analysis Results:

Behavioral review completed across profile, login, and device records.
Observed activity is consistent with the customer's established pattern
and no additional indicators were found beyond those already recorded.

Conclusion: proceed on the accumulated evidence; standard monitoring applies.`

const neutralFallback = "Analysis in progress..."

// FallbackResponse returns the deterministic text substituted when the
// oracle is unavailable. The shape is chosen by keyword-sniffing the
// prompt so downstream parsing still succeeds.
func FallbackResponse(prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "fraud") && strings.Contains(lower, "classify"):
		return classificationFallback
	case strings.Contains(lower, "investigate") || strings.Contains(lower, "analysis"):
		return narrativeFallback
	default:
		return neutralFallback
	}
}

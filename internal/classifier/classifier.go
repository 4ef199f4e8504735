// Package classifier implements the initial risk classification stage.
package classifier

import (
	"context"
	"fmt"
	"math"

	"github.com/opensource-finance/harrier/internal/domain"
)

// Numeric thresholds used when the oracle response carries no
// recognizable keyword. Empirically chosen in the reference workflow;
// changing them changes classification outcomes.
const (
	flaggedScoreThreshold     = 0.75
	investigateScoreThreshold = 0.45
	riskFactorScoreThreshold  = 0.6
)

const (
	classifyMaxTokens   = 400
	classifyTemperature = 0.7
)

var recommendations = map[domain.Category]string{
	domain.CategoryFlagged:     "Immediate investigation required. Consider account freeze and customer contact.",
	domain.CategoryInvestigate: "Requires deeper analysis. Review customer behavior and auxiliary data sources.",
	domain.CategoryNonFraud:    "Transaction appears legitimate. Continue monitoring.",
}

// Classifier turns one transfer plus an oracle response into a
// structured classification.
type Classifier struct {
	oracle domain.TextOracle
}

// New creates a classifier backed by the given oracle.
func New(oracle domain.TextOracle) *Classifier {
	return &Classifier{oracle: oracle}
}

// Classify builds the classification prompt, queries the oracle, and
// maps the response to a category with confidence and risk factors.
// There is no error path: an unreachable oracle yields the
// deterministic fallback text, which still parses.
func (c *Classifier) Classify(ctx context.Context, t *domain.Transfer) *domain.Classification {
	prompt := buildPrompt(t)

	response, err := c.oracle.Generate(ctx, prompt, classifyMaxTokens, classifyTemperature)
	if err != nil {
		response = domain.FallbackResponse(prompt)
	}

	category, confidence := parseCategory(response, t.MLScore)

	return &domain.Classification{
		TransferID:     t.ID,
		Category:       category,
		Confidence:     round2(confidence),
		RiskFactors:    riskFactors(t),
		Reasoning:      response,
		Recommendation: recommendations[category],
		Timestamp:      t.Timestamp,
	}
}

func buildPrompt(t *domain.Transfer) string {
	return fmt.Sprintf(`Transfer Fraud Analysis:
Amount: %.2f %s
Beneficiary: %s in %s
Transfer Type: %s
ML Score: %.3f
Flags: Velocity=%t, Amount Anomaly=%t, Geo=%t

Classify as FLAGGED/INVESTIGATE/NON_FRAUD and explain why in 2-3 sentences:`,
		t.Amount, t.Currency,
		t.BeneficiaryName, t.BeneficiaryCountry,
		t.TransferType,
		t.MLScore,
		t.VelocityFlag, t.AmountAnomaly, t.GeoAnomaly,
	)
}

// parseCategory maps the oracle text to a category. When the response
// carries no recognizable keyword the ML score alone decides, and the
// confidence is the score itself (or its complement for NON_FRAUD).
func parseCategory(response string, mlScore float64) (domain.Category, float64) {
	if category, ok := domain.MatchCategory(response); ok {
		switch category {
		case domain.CategoryFlagged:
			if mlScore > flaggedScoreThreshold {
				return category, 0.85
			}
			return category, 0.70
		case domain.CategoryInvestigate:
			return category, 0.65
		default:
			return category, 0.80
		}
	}

	switch {
	case mlScore > flaggedScoreThreshold:
		return domain.CategoryFlagged, mlScore
	case mlScore > investigateScoreThreshold:
		return domain.CategoryInvestigate, mlScore
	default:
		return domain.CategoryNonFraud, 1 - mlScore
	}
}

// riskFactors appends one descriptive string per triggered signal, in
// fixed order.
func riskFactors(t *domain.Transfer) []string {
	factors := []string{}
	if t.MLScore > riskFactorScoreThreshold {
		factors = append(factors, fmt.Sprintf("High ML fraud score: %.3f", t.MLScore))
	}
	if t.VelocityFlag {
		factors = append(factors, "Velocity flag triggered")
	}
	if t.AmountAnomaly {
		factors = append(factors, "Unusual transaction amount")
	}
	if t.GeoAnomaly {
		factors = append(factors, fmt.Sprintf("Suspicious beneficiary location: %s", t.BeneficiaryCountry))
	}
	return factors
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

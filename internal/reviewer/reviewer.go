// Package reviewer implements the monitoring review stage that routes
// classifications to closure or investigation.
package reviewer

import (
	"context"
	"fmt"
	"strings"

	"github.com/opensource-finance/harrier/internal/domain"
)

const (
	reviewMaxTokens   = 300
	reviewTemperature = 0.7

	autoCloseConfidence    = 0.85
	highPriorityConfidence = 0.80
)

// Reviewer turns a classification into a routing decision. It is
// deterministic apart from one oracle call on the INVESTIGATE path.
type Reviewer struct {
	oracle domain.TextOracle
}

// New creates a reviewer backed by the given oracle.
func New(oracle domain.TextOracle) *Reviewer {
	return &Reviewer{oracle: oracle}
}

// Review applies the routing rules in order: auto-close confident
// non-fraud, open a case for flagged transfers, consult the oracle for
// borderline ones, and request more information for anything else.
func (r *Reviewer) Review(ctx context.Context, cls *domain.Classification, t *domain.Transfer) *domain.ReviewDecision {
	if cls.Category == domain.CategoryNonFraud && cls.Confidence > autoCloseConfidence {
		return &domain.ReviewDecision{
			Action:           domain.ActionAgreeClose,
			AdditionalChecks: []string{},
			Reasoning:        "Low risk transaction with high confidence. No further action needed.",
		}
	}

	if cls.Category == domain.CategoryFlagged {
		priority := domain.PriorityMedium
		if cls.Confidence > highPriorityConfidence {
			priority = domain.PriorityHigh
		}
		return &domain.ReviewDecision{
			Action:           domain.ActionCreateCase,
			CaseID:           CaseID(t.ID),
			CasePriority:     priority,
			AdditionalChecks: []string{"customer_profile", "login_history", "device_fingerprint"},
			Reasoning:        "High risk indicators present. Creating case for investigator review.",
		}
	}

	if cls.Category == domain.CategoryInvestigate {
		return r.reviewBorderline(ctx, cls, t)
	}

	// Defensive fallback for unrecognized categories.
	return &domain.ReviewDecision{
		Action:           domain.ActionRequestMoreInfo,
		CaseID:           CaseID(t.ID),
		CasePriority:     domain.PriorityLow,
		AdditionalChecks: []string{"customer_profile"},
		Reasoning:        "Insufficient information for decision - requires further investigation",
	}
}

// reviewBorderline consults the oracle on INVESTIGATE classifications
// and opens a medium-priority case when the response asks for one.
func (r *Reviewer) reviewBorderline(ctx context.Context, cls *domain.Classification, t *domain.Transfer) *domain.ReviewDecision {
	prompt := buildReviewPrompt(cls, t)

	response, err := r.oracle.Generate(ctx, prompt, reviewMaxTokens, reviewTemperature)
	if err != nil {
		response = domain.FallbackResponse(prompt)
	}

	if domain.EscalationRequested(response) {
		return &domain.ReviewDecision{
			Action:           domain.ActionCreateCase,
			CaseID:           CaseID(t.ID),
			CasePriority:     domain.PriorityMedium,
			AdditionalChecks: []string{"login_history", "transaction_history"},
			Reasoning:        strings.TrimSpace(response),
		}
	}

	return &domain.ReviewDecision{
		Action:           domain.ActionAgreeClose,
		AdditionalChecks: []string{},
		Reasoning:        strings.TrimSpace(response),
	}
}

func buildReviewPrompt(cls *domain.Classification, t *domain.Transfer) string {
	return fmt.Sprintf(`Review Alert:
Classification: %s (%.0f%%)
Amount: %.2f %s
ML Score: %.3f

Decision (AGREE_CLOSE/CREATE_CASE/REQUEST_MORE_INFO) and why in 1 sentence:`,
		cls.Category, cls.Confidence*100,
		t.Amount, t.Currency,
		t.MLScore,
	)
}

// CaseID derives a case identifier from a transfer id by prefix
// substitution: "TXN_00000001" yields "CASE_00000001". This is a
// documented convention relied on by downstream consumers; transfer ids
// without the "TXN_" prefix are used as-is after the "CASE_" prefix.
func CaseID(transferID string) string {
	return "CASE_" + strings.Replace(transferID, "TXN_", "", 1)
}

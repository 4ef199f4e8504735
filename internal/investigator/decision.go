package investigator

import (
	"github.com/opensource-finance/harrier/internal/domain"
)

// Risk score contributions and verdict thresholds. These constants are
// decision thresholds carried over from the reference workflow;
// preserve them exactly.
const (
	mlScoreHighThreshold = 0.75
	mlScoreMidThreshold  = 0.50

	anomalyHighCount = 3
	anomalyMidCount  = 1

	confirmedFraudScore = 5
	suspectedFraudScore = 3
)

var (
	confirmedActions = []string{
		"Block transaction immediately",
		"Freeze customer account",
		"Contact customer for verification",
		"File fraud report",
		"Initiate chargeback if applicable",
	}
	suspectedActions = []string{
		"Place temporary hold on account",
		"Request additional customer verification",
		"Monitor account closely for 48 hours",
		"Review with fraud specialist",
	}
	clearedActions = []string{
		"Clear transaction",
		"Continue standard monitoring",
		"Update customer risk profile if needed",
	}
)

// RiskScore computes the additive evidence score from the three
// independent inputs: ML score bucket, anomaly count bucket, and
// narrative keyword presence. Pure and order-independent.
func RiskScore(mlScore float64, anomalyCount int, narrative string) int {
	score := 0

	if mlScore > mlScoreHighThreshold {
		score += 3
	} else if mlScore > mlScoreMidThreshold {
		score += 2
	}

	if anomalyCount > anomalyHighCount {
		score += 2
	} else if anomalyCount > anomalyMidCount {
		score += 1
	}

	if domain.NarrativeTriggered(narrative) {
		score += 2
	}

	return score
}

// decide maps the risk score onto the terminal verdict with its fixed
// confidence and recommended action list.
func decide(t *domain.Transfer, behavioral domain.BehavioralAnalysis, narrative string) *domain.Investigation {
	score := RiskScore(t.MLScore, len(behavioral.Anomalies), narrative)

	switch {
	case score >= confirmedFraudScore:
		return &domain.Investigation{
			CaseStatus:          domain.StatusConfirmedFraud,
			FinalClassification: domain.VerdictFraud,
			Confidence:          0.90,
			RecommendedActions:  confirmedActions,
			Notes:               "Multiple strong fraud indicators present. Immediate action required.",
		}
	case score >= suspectedFraudScore:
		return &domain.Investigation{
			CaseStatus:          domain.StatusSuspectedFraud,
			FinalClassification: domain.VerdictSuspicious,
			Confidence:          0.70,
			RecommendedActions:  suspectedActions,
			Notes:               "Significant suspicious activity. Enhanced monitoring recommended.",
		}
	default:
		return &domain.Investigation{
			CaseStatus:          domain.StatusNoFraud,
			FinalClassification: domain.VerdictLegitimate,
			Confidence:          0.85,
			RecommendedActions:  clearedActions,
			Notes:               "Investigation shows low fraud risk. Transaction appears legitimate.",
		}
	}
}

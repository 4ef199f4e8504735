package investigator

import (
	"fmt"
	"strings"

	"github.com/opensource-finance/harrier/internal/domain"
)

// Axis promotion thresholds. Empirically chosen in the reference
// workflow; preserved as-is rather than re-derived.
const (
	loginCountryThreshold = 3
	failedLoginThreshold  = 2
	amountMultipleTrigger = 3.0
	highRiskProfileLevel  = "High"
)

// AnalyzeBehavior derives the per-axis risk levels and anomaly list
// from the customer's auxiliary records. Each axis stays UNKNOWN unless
// evidence promotes it; anomalies are appended in detection order.
func AnalyzeBehavior(t *domain.Transfer, profile *domain.Profile, logins []domain.LoginEvent, devices []domain.Device) domain.BehavioralAnalysis {
	analysis := domain.BehavioralAnalysis{
		ProfileRisk: domain.RiskUnknown,
		LoginRisk:   domain.RiskUnknown,
		DeviceRisk:  domain.RiskUnknown,
		Anomalies:   []string{},
	}

	analyzeProfile(&analysis, t, profile)
	analyzeLogins(&analysis, logins)
	analyzeDevices(&analysis, devices)

	return analysis
}

func analyzeProfile(analysis *domain.BehavioralAnalysis, t *domain.Transfer, profile *domain.Profile) {
	if profile == nil {
		return
	}

	if profile.RiskLevel == highRiskProfileLevel {
		analysis.ProfileRisk = domain.RiskHigh
		analysis.Anomalies = append(analysis.Anomalies, "Customer flagged as high risk")
	}

	if profile.PriorFraudCases > 0 {
		analysis.Anomalies = append(analysis.Anomalies,
			fmt.Sprintf("Previous fraud cases: %d", profile.PriorFraudCases))
	}

	if !profile.KYCVerified {
		analysis.Anomalies = append(analysis.Anomalies, "KYC not verified")
	}

	if profile.AvgTransferAmount > 0 && t.Amount > profile.AvgTransferAmount*amountMultipleTrigger {
		multiple := t.Amount / profile.AvgTransferAmount
		analysis.Anomalies = append(analysis.Anomalies,
			fmt.Sprintf("Transaction amount %.2f is %.1fx above average", t.Amount, multiple))
	}
}

func analyzeLogins(analysis *domain.BehavioralAnalysis, logins []domain.LoginEvent) {
	if len(logins) == 0 {
		return
	}

	countries := distinctCountries(logins)
	if len(countries) > loginCountryThreshold {
		analysis.LoginRisk = domain.RiskHigh
		sample := countries
		if len(sample) > 5 {
			sample = sample[:5]
		}
		analysis.Anomalies = append(analysis.Anomalies,
			fmt.Sprintf("Multiple login countries: %s", strings.Join(sample, ", ")))
	}

	failed := 0
	noTwoFactor := 0
	for _, l := range logins {
		if !l.Successful {
			failed++
		}
		if !l.TwoFactorUsed {
			noTwoFactor++
		}
	}

	if failed > failedLoginThreshold {
		analysis.Anomalies = append(analysis.Anomalies,
			fmt.Sprintf("%d failed login attempts detected", failed))
	}

	if float64(noTwoFactor) > float64(len(logins))*0.5 {
		analysis.Anomalies = append(analysis.Anomalies, "Majority of logins without 2FA")
	}
}

func analyzeDevices(analysis *domain.BehavioralAnalysis, devices []domain.Device) {
	if len(devices) == 0 {
		return
	}

	suspicious := 0
	untrusted := 0
	for _, d := range devices {
		if d.Suspicious {
			suspicious++
		}
		if !d.Trusted {
			untrusted++
		}
	}

	if suspicious > 0 {
		analysis.DeviceRisk = domain.RiskHigh
		analysis.Anomalies = append(analysis.Anomalies,
			fmt.Sprintf("%d suspicious devices detected", suspicious))
	}

	if untrusted > 0 {
		analysis.Anomalies = append(analysis.Anomalies,
			fmt.Sprintf("%d untrusted devices", untrusted))
	}
}

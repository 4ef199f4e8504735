package screening

import "github.com/opensource-finance/harrier/internal/domain"

// DefaultRules returns the built-in screening rules, used to seed a
// fresh database. Operators replace or extend them via the rules API.
func DefaultRules() []*domain.ScreeningRule {
	return []*domain.ScreeningRule{
		{
			ID:          "aml-high-value",
			Name:        "High-value transfer",
			Description: "Transfers above the regulatory reporting threshold",
			Expression:  `amount > 20000.0`,
			RiskFactor:  "Amount exceeds regulatory reporting threshold",
			Escalate:    false,
			Enabled:     true,
		},
		{
			ID:          "aml-risk-corridor",
			Name:        "High-risk corridor",
			Description: "Beneficiary in a high-risk jurisdiction",
			Expression:  `beneficiary_country in ["IR", "KP", "SY", "AF", "YE"]`,
			RiskFactor:  "Beneficiary in high-risk jurisdiction",
			Escalate:    true,
			Enabled:     true,
		},
		{
			ID:          "layering-pattern",
			Name:        "Possible layering",
			Description: "Anomalous amount combined with velocity on an international wire",
			Expression:  `transfer_type == "international_wire" && velocity_flag && amount_anomaly`,
			RiskFactor:  "Rapid international transfers with unusual amounts",
			Escalate:    true,
			Enabled:     true,
		},
	}
}

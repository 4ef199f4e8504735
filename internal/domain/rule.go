package domain

import "time"

// ScreeningRule is an operator-configurable CEL expression evaluated
// over a transfer before classification. A matching rule contributes a
// risk factor to the classification; an escalating rule additionally
// prevents the review stage from closing the transfer unexamined.
type ScreeningRule struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Expression  string    `json:"expression"`
	RiskFactor  string    `json:"riskFactor"`
	Escalate    bool      `json:"escalate"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// Package domain defines the core interfaces and types for Harrier.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Transfer represents an incoming wire transfer to be risk-scored.
// Transfers are produced by the ingestion source and never mutated.
type Transfer struct {
	// Core identifiers
	ID         string `json:"transactionId"`
	CustomerID string `json:"customerId"`

	// Temporal
	Timestamp time.Time `json:"timestamp"`

	// Financial details
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`

	// Beneficiary information
	BeneficiaryName    string `json:"beneficiaryName"`
	BeneficiaryAccount string `json:"beneficiaryAccount"`
	BeneficiaryBank    string `json:"beneficiaryBank"`
	BeneficiaryCountry string `json:"beneficiaryCountry"`

	// Transfer details
	TransferType    string `json:"transferType"`
	TransferPurpose string `json:"transferPurpose,omitempty"`
	TransferChannel string `json:"transferChannel,omitempty"`

	// Risk signals from the upstream scoring model
	MLScore       float64 `json:"mlFraudScore"`
	VelocityFlag  bool    `json:"velocityFlag"`
	AmountAnomaly bool    `json:"amountAnomaly"`
	GeoAnomaly    bool    `json:"geoAnomaly"`
}

// ErrInvalidTransfer indicates a transfer missing required fields.
var ErrInvalidTransfer = errors.New("invalid transfer")

// Validate checks the fields the pipeline cannot process without.
// A malformed transfer fails fast for that single item; the batch
// boundary records it and continues.
func (t *Transfer) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: transaction id is required", ErrInvalidTransfer)
	}
	if t.CustomerID == "" {
		return fmt.Errorf("%w: customer id is required", ErrInvalidTransfer)
	}
	if t.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransfer)
	}
	if t.Currency == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidTransfer)
	}
	if t.MLScore < 0 || t.MLScore > 1 {
		return fmt.Errorf("%w: ml fraud score %.3f outside [0,1]", ErrInvalidTransfer, t.MLScore)
	}
	return nil
}

package domain

import (
	"errors"
	"testing"
	"time"
)

func validTransfer() *Transfer {
	return &Transfer{
		ID:                 "TXN_00000001",
		CustomerID:         "CUST_0001",
		Timestamp:          time.Now().UTC(),
		Amount:             2500.00,
		Currency:           "SAR",
		BeneficiaryCountry: "UAE",
		TransferType:       "SWIFT Transfer",
		MLScore:            0.42,
	}
}

func TestTransferValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Transfer)
		valid  bool
	}{
		{"valid", func(t *Transfer) {}, true},
		{"missing id", func(t *Transfer) { t.ID = "" }, false},
		{"missing customer", func(t *Transfer) { t.CustomerID = "" }, false},
		{"zero amount", func(t *Transfer) { t.Amount = 0 }, false},
		{"negative amount", func(t *Transfer) { t.Amount = -100 }, false},
		{"missing currency", func(t *Transfer) { t.Currency = "" }, false},
		{"score below range", func(t *Transfer) { t.MLScore = -0.1 }, false},
		{"score above range", func(t *Transfer) { t.MLScore = 1.1 }, false},
		{"score at bounds", func(t *Transfer) { t.MLScore = 1.0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := validTransfer()
			tt.mutate(tr)
			err := tr.Validate()
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrInvalidTransfer) {
					t.Errorf("error %v should wrap ErrInvalidTransfer", err)
				}
			}
		})
	}
}

func TestReviewDecisionOpensCase(t *testing.T) {
	tests := []struct {
		action Action
		want   bool
	}{
		{ActionAgreeClose, false},
		{ActionCreateCase, true},
		{ActionRequestMoreInfo, true},
	}

	for _, tt := range tests {
		d := &ReviewDecision{Action: tt.action}
		if got := d.OpensCase(); got != tt.want {
			t.Errorf("OpensCase(%s) = %v, want %v", tt.action, got, tt.want)
		}
	}
}

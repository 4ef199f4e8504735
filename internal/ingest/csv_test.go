package ingest

import (
	"strings"
	"testing"
	"time"
)

func TestReadTransfers(t *testing.T) {
	t.Run("header mapped columns", func(t *testing.T) {
		csv := strings.Join([]string{
			"Transaction_ID, Customer_ID ,amount,currency,ml_fraud_score,beneficiary_country,velocity_flag,timestamp",
			"TXN_1,CUST_1,1500.50,SAR,0.42,Turkey,true,2026-02-01T09:30:00Z",
			"TXN_2,CUST_2,99,USD,,UK,no,",
		}, "\n")

		transfers, err := ReadTransfers(strings.NewReader(csv))
		if err != nil {
			t.Fatalf("ReadTransfers failed: %v", err)
		}
		if len(transfers) != 2 {
			t.Fatalf("expected 2 transfers, got %d", len(transfers))
		}

		first := transfers[0]
		if first.ID != "TXN_1" || first.CustomerID != "CUST_1" {
			t.Errorf("ids = %s/%s", first.ID, first.CustomerID)
		}
		if first.Amount != 1500.50 {
			t.Errorf("amount = %.2f", first.Amount)
		}
		if first.MLScore != 0.42 {
			t.Errorf("ml score = %.2f", first.MLScore)
		}
		if !first.VelocityFlag {
			t.Error("velocity flag should parse true")
		}
		want := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
		if !first.Timestamp.Equal(want) {
			t.Errorf("timestamp = %v", first.Timestamp)
		}

		second := transfers[1]
		if second.MLScore != 0 {
			t.Errorf("empty score should default to 0, got %.2f", second.MLScore)
		}
		if second.VelocityFlag {
			t.Error("no should parse false")
		}
		if second.Timestamp.IsZero() {
			t.Error("missing timestamp should default to now")
		}
	})

	t.Run("missing required column", func(t *testing.T) {
		csv := "transaction_id,amount,currency\nTXN_1,100,SAR"
		if _, err := ReadTransfers(strings.NewReader(csv)); err == nil {
			t.Error("expected error for missing customer_id column")
		}
	})

	t.Run("malformed rows skipped", func(t *testing.T) {
		csv := strings.Join([]string{
			"transaction_id,customer_id,amount,currency",
			"TXN_1,CUST_1,not-a-number,SAR",
			"TXN_2,CUST_2,250,SAR",
		}, "\n")

		transfers, err := ReadTransfers(strings.NewReader(csv))
		if err != nil {
			t.Fatalf("ReadTransfers failed: %v", err)
		}
		if len(transfers) != 1 || transfers[0].ID != "TXN_2" {
			t.Errorf("transfers = %+v", transfers)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, err := ReadTransfers(strings.NewReader("")); err == nil {
			t.Error("expected error for missing header")
		}
	})
}

func TestParseBool(t *testing.T) {
	trueValues := []string{"1", "true", "TRUE", "yes", "Y"}
	for _, v := range trueValues {
		if !parseBool(v) {
			t.Errorf("parseBool(%q) = false, want true", v)
		}
	}
	falseValues := []string{"", "0", "false", "no", "maybe"}
	for _, v := range falseValues {
		if parseBool(v) {
			t.Errorf("parseBool(%q) = true, want false", v)
		}
	}
}

func TestGeneratorDeterminism(t *testing.T) {
	a := NewGenerator(42).Transfers(20, 10)
	b := NewGenerator(42).Transfers(20, 10)

	if len(a) != 20 || len(b) != 20 {
		t.Fatalf("counts = %d/%d", len(a), len(b))
	}
	for i := range a {
		if a[i].CustomerID != b[i].CustomerID || a[i].Amount != b[i].Amount || a[i].MLScore != b[i].MLScore {
			t.Fatalf("same seed must yield the same dataset, diverged at %d", i)
		}
	}
}

func TestGeneratorTransfersValid(t *testing.T) {
	transfers := NewGenerator(7).Transfers(50, 10)

	for _, tr := range transfers {
		if err := tr.Validate(); err != nil {
			t.Fatalf("generated transfer %s invalid: %v", tr.ID, err)
		}
		if tr.MLScore < 0 || tr.MLScore > 1 {
			t.Errorf("%s ml score = %.3f", tr.ID, tr.MLScore)
		}
	}
}

func TestGeneratorAuxiliaryData(t *testing.T) {
	g := NewGenerator(7)

	profiles := g.Profiles(10)
	if len(profiles) != 10 {
		t.Fatalf("profiles = %d", len(profiles))
	}
	for _, p := range profiles {
		if p.CustomerID == "" || p.RiskLevel == "" {
			t.Errorf("incomplete profile %+v", p)
		}
	}

	logins := g.Logins(10)
	if len(logins) == 0 {
		t.Error("expected some login events")
	}
	for _, l := range logins {
		if l.CustomerID == "" {
			t.Error("login without customer id")
		}
	}

	devices := g.Devices(10)
	if len(devices) == 0 {
		t.Error("expected some devices")
	}
}

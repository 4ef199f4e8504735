// Package integration exercises the full review pipeline with every
// collaborator wired: SQLite persistence, cached auxiliary lookups, a
// channel event bus, CEL screening, and a scripted oracle.
package integration

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opensource-finance/harrier/internal/bus"
	"github.com/opensource-finance/harrier/internal/cache"
	"github.com/opensource-finance/harrier/internal/classifier"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/investigator"
	"github.com/opensource-finance/harrier/internal/oracle"
	"github.com/opensource-finance/harrier/internal/pipeline"
	"github.com/opensource-finance/harrier/internal/repository"
	"github.com/opensource-finance/harrier/internal/reviewer"
	"github.com/opensource-finance/harrier/internal/screening"
)

type harness struct {
	repo domain.Repository
	bus  domain.EventBus

	processed atomic.Int32
	cases     atomic.Int32
	verdicts  atomic.Int32
	alerts    atomic.Int32
}

func newHarness(t *testing.T, script *oracle.Scripted) (*harness, *pipeline.Pipeline) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "harrier-integration-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpFile.Name(),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	eventBus := bus.NewChannelBus(100)
	t.Cleanup(func() { eventBus.Close() })

	h := &harness{repo: repo, bus: eventBus}

	ctx := context.Background()
	subscribe := func(topic string, counter *atomic.Int32) {
		_, err := eventBus.Subscribe(ctx, topic, func(ctx context.Context, msg *domain.Message) error {
			counter.Add(1)
			return nil
		})
		if err != nil {
			t.Fatalf("subscribe %s failed: %v", topic, err)
		}
	}
	subscribe(domain.TopicTransferProcessed, &h.processed)
	subscribe(domain.TopicCaseOpened, &h.cases)
	subscribe(domain.TopicVerdict, &h.verdicts)
	subscribe(domain.TopicAlert, &h.alerts)

	engine, err := screening.NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if err := engine.LoadRules(screening.DefaultRules()); err != nil {
		t.Fatalf("failed to load rules: %v", err)
	}

	store := cache.NewCachedStore(repo, cache.NewLRUCache(1000), time.Minute)

	p := pipeline.New(
		classifier.New(script),
		reviewer.New(script),
		investigator.New(script, store),
		pipeline.Options{
			Screening:  engine,
			Repository: repo,
			EventBus:   eventBus,
		},
	)

	return h, p
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestFullPipelineConfirmedFraud(t *testing.T) {
	script := oracle.NewScripted(
		"FLAGGED - multiple strong indicators",
		"Risk: HIGH. Beneficiary pattern matches known fraud corridors.",
	)
	h, p := newHarness(t, script)
	ctx := context.Background()

	// Seed the customer whose behavior the investigator will read back.
	if err := h.repo.SaveProfile(ctx, &domain.Profile{
		CustomerID:        "CUST_0900",
		CustomerSince:     time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		RiskLevel:         "High",
		KYCVerified:       false,
		AvgTransferAmount: 800,
		PriorFraudCases:   1,
	}); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	if err := h.repo.SaveDevice(ctx, &domain.Device{
		CustomerID: "CUST_0900",
		DeviceID:   "DEV_0900_1",
		Suspicious: true,
	}); err != nil {
		t.Fatalf("SaveDevice failed: %v", err)
	}

	tr := &domain.Transfer{
		ID:                 "TXN_00000900",
		CustomerID:         "CUST_0900",
		Timestamp:          time.Now().UTC(),
		Amount:             60000,
		Currency:           "SAR",
		BeneficiaryCountry: "IR",
		TransferType:       "international_wire",
		MLScore:            0.91,
		VelocityFlag:       true,
		AmountAnomaly:      true,
	}

	result := p.Process(ctx, tr)

	if result.Err != "" {
		t.Fatalf("unexpected error: %s", result.Err)
	}
	if result.Review.Action != domain.ActionCreateCase {
		t.Errorf("action = %s", result.Review.Action)
	}
	if result.Review.CaseID != "CASE_00000900" {
		t.Errorf("case id = %s", result.Review.CaseID)
	}
	if result.Investigation == nil {
		t.Fatal("expected an investigation")
	}
	if result.Investigation.CaseStatus != domain.StatusConfirmedFraud {
		t.Errorf("status = %s, want CONFIRMED_FRAUD", result.Investigation.CaseStatus)
	}
	if result.Investigation.Behavioral.ProfileRisk != domain.RiskHigh {
		t.Errorf("profile risk = %s", result.Investigation.Behavioral.ProfileRisk)
	}
	if result.Investigation.Behavioral.DeviceRisk != domain.RiskHigh {
		t.Errorf("device risk = %s", result.Investigation.Behavioral.DeviceRisk)
	}

	// All three screening rules matched and contributed risk factors.
	factors := result.Classification.RiskFactors
	for _, want := range []string{
		"Amount exceeds regulatory reporting threshold",
		"Beneficiary in high-risk jurisdiction",
		"Rapid international transfers with unusual amounts",
	} {
		found := false
		for _, f := range factors {
			if f == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing screening factor %q in %v", want, factors)
		}
	}

	// Persistence: both the transfer and the full result round-trip.
	stored, err := h.repo.GetTransfer(ctx, "TXN_00000900")
	if err != nil {
		t.Fatalf("GetTransfer failed: %v", err)
	}
	if stored.Amount != 60000 {
		t.Errorf("stored amount = %.2f", stored.Amount)
	}

	storedResult, err := h.repo.GetResult(ctx, "TXN_00000900")
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if storedResult.Investigation == nil || storedResult.Investigation.CaseStatus != domain.StatusConfirmedFraud {
		t.Errorf("stored result = %+v", storedResult)
	}

	// Event fan-out: processed, case opened, verdict, and the fraud alert.
	waitFor(t, 2*time.Second, func() bool {
		return h.processed.Load() == 1 && h.cases.Load() == 1 &&
			h.verdicts.Load() == 1 && h.alerts.Load() == 1
	})
}

func TestFullPipelineAutoClose(t *testing.T) {
	script := oracle.NewScripted("No assessment text for this one")
	h, p := newHarness(t, script)
	ctx := context.Background()

	tr := &domain.Transfer{
		ID:                 "TXN_00000901",
		CustomerID:         "CUST_0901",
		Timestamp:          time.Now().UTC(),
		Amount:             400,
		Currency:           "SAR",
		BeneficiaryCountry: "UAE",
		MLScore:            0.05,
	}

	result := p.Process(ctx, tr)

	if result.Review.Action != domain.ActionAgreeClose {
		t.Fatalf("action = %s, want AGREE_CLOSE", result.Review.Action)
	}
	if result.Investigation != nil {
		t.Error("closed transfer must not be investigated")
	}

	waitFor(t, 2*time.Second, func() bool { return h.processed.Load() == 1 })
	time.Sleep(50 * time.Millisecond)

	if h.cases.Load() != 0 || h.verdicts.Load() != 0 || h.alerts.Load() != 0 {
		t.Errorf("closed transfer emitted case/verdict/alert events: %d/%d/%d",
			h.cases.Load(), h.verdicts.Load(), h.alerts.Load())
	}

	stored, err := h.repo.GetResult(ctx, "TXN_00000901")
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if stored.Review == nil || stored.Review.Action != domain.ActionAgreeClose {
		t.Errorf("stored result review = %+v", stored.Review)
	}
}

func TestFullPipelineBatchStatistics(t *testing.T) {
	// The scripted oracle's last response repeats, so one neutral
	// response covers the whole batch and the ML scores decide.
	script := oracle.NewScripted("No assessment text for this one")
	h, p := newHarness(t, script)
	ctx := context.Background()

	transfers := []*domain.Transfer{
		{ID: "TXN_10", CustomerID: "C1", Timestamp: time.Now(), Amount: 100, Currency: "SAR", MLScore: 0.05, BeneficiaryCountry: "UAE"},
		{ID: "TXN_11", CustomerID: "C2", Timestamp: time.Now(), Amount: 200, Currency: "SAR", MLScore: 0.85, BeneficiaryCountry: "UAE"},
		{ID: "TXN_12", CustomerID: "C3", Timestamp: time.Now(), Amount: 300, Currency: "SAR", MLScore: 0.60, BeneficiaryCountry: "UAE"},
	}

	results := p.Run(ctx, transfers)
	stats := pipeline.Statistics(results)

	if stats.Total != 3 {
		t.Errorf("total = %d", stats.Total)
	}
	if stats.NonFraud != 1 || stats.Flagged != 1 || stats.Investigate != 1 {
		t.Errorf("categories = %+v", stats)
	}
	// The flagged item opens a case; the investigate item closes on
	// the neutral review response.
	if stats.CasesCreated != 1 {
		t.Errorf("cases = %d, want 1", stats.CasesCreated)
	}

	if _, err := h.repo.GetResult(ctx, "TXN_12"); err != nil {
		t.Errorf("batch results should persist: %v", err)
	}
}

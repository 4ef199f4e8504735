// Package investigator implements the deep investigation stage. It
// cross-references customer auxiliary records, scores behavioral risk,
// and combines the evidence with an oracle narrative into a final
// verdict.
package investigator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opensource-finance/harrier/internal/domain"
)

const (
	narrativeMaxTokens   = 600
	narrativeTemperature = 0.7

	// loginLimit bounds how many recent logins are considered.
	loginLimit = 10
)

var dataSources = []string{"transaction", "customer_profile", "login_history", "device_fingerprints"}

// Investigator performs the deep investigation for routed cases.
type Investigator struct {
	oracle domain.TextOracle
	store  domain.DataStore
}

// New creates an investigator backed by the given oracle and datastore.
func New(oracle domain.TextOracle, store domain.DataStore) *Investigator {
	return &Investigator{oracle: oracle, store: store}
}

// Investigate gathers auxiliary records, derives the behavioral
// analysis, obtains a narrative from the oracle, and issues the final
// verdict. Missing auxiliary data is treated as absence of evidence,
// never as a failure; datastore errors are returned to the caller.
func (i *Investigator) Investigate(ctx context.Context, decision *domain.ReviewDecision, t *domain.Transfer, cls *domain.Classification) (*domain.Investigation, error) {
	profile, err := i.store.Profile(ctx, t.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer profile: %w", err)
	}

	logins, err := i.store.RecentLogins(ctx, t.CustomerID, loginLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load login history: %w", err)
	}

	devices, err := i.store.Devices(ctx, t.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load device records: %w", err)
	}

	behavioral := AnalyzeBehavior(t, profile, logins, devices)

	prompt := buildNarrativePrompt(t, profile, logins, behavioral)
	narrative, err := i.oracle.Generate(ctx, prompt, narrativeMaxTokens, narrativeTemperature)
	if err != nil {
		narrative = domain.FallbackResponse(prompt)
	}

	verdict := decide(t, behavioral, narrative)

	slog.Debug("investigation complete",
		"case_id", decision.CaseID,
		"transfer_id", t.ID,
		"status", verdict.CaseStatus,
		"anomalies", len(behavioral.Anomalies),
	)

	verdict.Summary = narrative
	verdict.DataSourcesChecked = dataSources
	verdict.Behavioral = behavioral
	verdict.ProfileSummary = summarizeProfile(profile)
	verdict.LoginSummary = summarizeLogins(logins)
	verdict.DeviceSummary = summarizeDevices(devices)

	return verdict, nil
}

func buildNarrativePrompt(t *domain.Transfer, profile *domain.Profile, logins []domain.LoginEvent, behavioral domain.BehavioralAnalysis) string {
	accountAge := 0
	kyc := false
	priorFraud := 0
	if profile != nil {
		accountAge = profile.AccountAgeDays
		kyc = profile.KYCVerified
		priorFraud = profile.PriorFraudCases
	}

	anomalyText := "None"
	if len(behavioral.Anomalies) > 0 {
		top := behavioral.Anomalies
		if len(top) > 3 {
			top = top[:3]
		}
		anomalyText = strings.Join(top, ", ")
	}

	return fmt.Sprintf(`Deep Analysis:
Amount: %.2f %s, ML: %.3f
Customer: %dd old, KYC: %t, Prev Fraud: %d
Logins: %d recent, Countries: %d
Anomalies: %s

Risk (HIGH/MEDIUM/LOW) and why in 2 sentences:`,
		t.Amount, t.Currency, t.MLScore,
		accountAge, kyc, priorFraud,
		len(logins), len(distinctCountries(logins)),
		anomalyText,
	)
}

func summarizeProfile(p *domain.Profile) string {
	if p == nil {
		return "No profile data available"
	}
	kyc := "Not Verified"
	if p.KYCVerified {
		kyc = "Verified"
	}
	return fmt.Sprintf("Customer since %s, Risk Level: %s, KYC: %s",
		p.CustomerSince.Format("2006-01-02"), p.RiskLevel, kyc)
}

func summarizeLogins(logins []domain.LoginEvent) string {
	if len(logins) == 0 {
		return "No recent login data"
	}
	countries := distinctCountries(logins)
	sample := countries
	if len(sample) > 3 {
		sample = sample[:3]
	}
	return fmt.Sprintf("%d recent logins from %d countries: %s",
		len(logins), len(countries), strings.Join(sample, ", "))
}

func summarizeDevices(devices []domain.Device) string {
	if len(devices) == 0 {
		return "No device data available"
	}
	trusted := 0
	for _, d := range devices {
		if d.Trusted {
			trusted++
		}
	}
	return fmt.Sprintf("%d devices registered, %d trusted", len(devices), trusted)
}

// distinctCountries returns the distinct login countries in first-seen
// order.
func distinctCountries(logins []domain.LoginEvent) []string {
	seen := make(map[string]bool, len(logins))
	var countries []string
	for _, l := range logins {
		country := l.Country
		if country == "" {
			country = "Unknown"
		}
		if !seen[country] {
			seen[country] = true
			countries = append(countries, country)
		}
	}
	return countries
}

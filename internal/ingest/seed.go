package ingest

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

// Generator produces deterministic synthetic data for demos and
// batch runs. The same seed always yields the same dataset.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

// NewGenerator creates a generator with a fixed seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now().UTC(),
	}
}

var (
	customerNames = []string{
		"Ahmed Al-Rashid", "Fatima Al-Zahrani", "Mohammed Al-Qahtani",
		"Sara Al-Otaibi", "Khalid Al-Ghamdi", "Noura Al-Harbi",
		"Abdullah Al-Shehri", "Layla Al-Mutairi", "Omar Al-Dossari",
		"Huda Al-Subaie",
	}
	gulfCountries = []string{"Saudi Arabia", "UAE", "Kuwait", "Bahrain", "Qatar"}
	riskCountries = []string{"IR", "KP", "SY", "AF", "YE"}
	midCountries  = []string{"Turkey", "Egypt", "India", "Pakistan", "Philippines", "UK", "USA"}
	saudiCities   = []string{"Riyadh", "Jeddah", "Dammam", "Mecca", "Medina"}

	localTypes         = []string{"Local Transfer", "SADAD", "Instant Transfer"}
	internationalTypes = []string{"international_wire", "SWIFT Transfer", "Cross-Border Transfer"}
	transferPurposes   = []string{"Family Support", "Business Payment", "Investment", "Property Purchase", "Salary"}
	transferChannels   = []string{"Mobile Banking", "Internet Banking", "Branch", "ATM"}
)

// Transfers generates count synthetic transfers across three risk
// tiers: roughly 15% high risk, 25% medium, the rest low.
func (g *Generator) Transfers(count, customers int) []*domain.Transfer {
	transfers := make([]*domain.Transfer, 0, count)

	for i := 0; i < count; i++ {
		customerID := fmt.Sprintf("CUST_%04d", g.rng.Intn(customers)+1)

		var amount, mlScore float64
		var country string

		highRisk := g.rng.Float64() < 0.15
		mediumRisk := !highRisk && g.rng.Float64() < 0.25

		switch {
		case highRisk:
			amount = g.round2(10000 + g.rng.Float64()*90000)
			mlScore = g.round3(0.75 + g.rng.Float64()*0.23)
			country = pick(g.rng, riskCountries)
		case mediumRisk:
			amount = g.round2(500 + g.rng.Float64()*49500)
			mlScore = g.round3(0.45 + g.rng.Float64()*0.29)
			country = pick(g.rng, midCountries)
		default:
			amount = g.round2(500 + g.rng.Float64()*9500)
			mlScore = g.round3(0.01 + g.rng.Float64()*0.43)
			country = pick(g.rng, gulfCountries)
		}

		transferType := pick(g.rng, internationalTypes)
		if country == "Saudi Arabia" {
			transferType = pick(g.rng, localTypes)
		}

		transfers = append(transfers, &domain.Transfer{
			ID:                 fmt.Sprintf("TXN_%08d", i+1),
			CustomerID:         customerID,
			Timestamp:          g.now.Add(-time.Duration(g.rng.Intn(7*24)) * time.Hour),
			Amount:             amount,
			Currency:           "SAR",
			BeneficiaryName:    pick(g.rng, customerNames),
			BeneficiaryAccount: fmt.Sprintf("SA%016d", g.rng.Int63n(1e16)),
			BeneficiaryBank:    "Gulf International Bank",
			BeneficiaryCountry: country,
			TransferType:       transferType,
			TransferPurpose:    pick(g.rng, transferPurposes),
			TransferChannel:    pick(g.rng, transferChannels),
			MLScore:            mlScore,
			VelocityFlag:       mlScore > 0.5 && g.rng.Intn(2) == 0,
			AmountAnomaly:      mlScore > 0.6 && g.rng.Intn(2) == 0,
			GeoAnomaly:         highRisk,
		})
	}

	return transfers
}

// Profiles generates one profile per customer id.
func (g *Generator) Profiles(customers int) []*domain.Profile {
	riskLevels := []string{"Low", "Low", "Low", "Medium", "High"}
	fraudCases := []int{0, 0, 0, 0, 1, 2}

	profiles := make([]*domain.Profile, 0, customers)
	for i := 0; i < customers; i++ {
		accountAge := 30 + g.rng.Intn(3620)
		profiles = append(profiles, &domain.Profile{
			CustomerID:        fmt.Sprintf("CUST_%04d", i+1),
			CustomerName:      pick(g.rng, customerNames),
			CustomerSince:     g.now.AddDate(0, 0, -accountAge),
			AccountAgeDays:    accountAge,
			HomeCountry:       "Saudi Arabia",
			RiskLevel:         pick(g.rng, riskLevels),
			KYCVerified:       g.rng.Intn(4) != 0,
			AvgTransferAmount: g.round2(200 + g.rng.Float64()*7800),
			PriorFraudCases:   fraudCases[g.rng.Intn(len(fraudCases))],
			PEP:               g.rng.Intn(5) == 0,
			Watchlisted:       g.rng.Intn(4) == 0,
		})
	}
	return profiles
}

// Logins generates 1-20 login events per customer.
func (g *Generator) Logins(customers int) []*domain.LoginEvent {
	deviceTypes := []string{"Mobile", "Desktop", "Tablet"}

	var logins []*domain.LoginEvent
	for i := 0; i < customers; i++ {
		customerID := fmt.Sprintf("CUST_%04d", i+1)
		n := 1 + g.rng.Intn(20)
		for j := 0; j < n; j++ {
			country := "Saudi Arabia"
			city := pick(g.rng, saudiCities)
			if g.rng.Float64() < 0.3 {
				country = pick(g.rng, midCountries)
				city = ""
			}
			logins = append(logins, &domain.LoginEvent{
				CustomerID:    customerID,
				Timestamp:     g.now.Add(-time.Duration(g.rng.Intn(30*24)) * time.Hour),
				IPAddress:     fmt.Sprintf("10.%d.%d.%d", g.rng.Intn(256), g.rng.Intn(256), g.rng.Intn(256)),
				Country:       country,
				City:          city,
				DeviceType:    pick(g.rng, deviceTypes),
				Successful:    g.rng.Intn(10) != 0,
				TwoFactorUsed: g.rng.Intn(2) == 0,
			})
		}
	}
	return logins
}

// Devices generates 1-5 device records for most customers.
func (g *Generator) Devices(customers int) []*domain.Device {
	deviceTypes := []string{"Mobile", "Desktop", "Tablet"}
	oses := []string{"iOS", "Android", "Windows", "MacOS", "Linux"}

	var devices []*domain.Device
	for i := 0; i < customers; i++ {
		customerID := fmt.Sprintf("CUST_%04d", i+1)
		n := 1 + g.rng.Intn(5)
		for j := 0; j < n; j++ {
			firstSeen := g.now.AddDate(0, 0, -(1 + g.rng.Intn(365)))
			devices = append(devices, &domain.Device{
				CustomerID:      customerID,
				DeviceID:        fmt.Sprintf("DEV_%04d_%d", i+1, j+1),
				Fingerprint:     fmt.Sprintf("%016x%016x", g.rng.Uint64(), g.rng.Uint64()),
				FirstSeen:       firstSeen,
				LastSeen:        g.now.AddDate(0, 0, -g.rng.Intn(8)),
				DeviceType:      pick(g.rng, deviceTypes),
				OS:              pick(g.rng, oses),
				Trusted:         g.rng.Intn(4) != 0,
				LocationChanges: g.rng.Intn(21),
				Suspicious:      g.rng.Intn(4) == 0,
			})
		}
	}
	return devices
}

func (g *Generator) round2(v float64) float64 {
	return float64(int(v*100)) / 100
}

func (g *Generator) round3(v float64) float64 {
	return float64(int(v*1000)) / 1000
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}

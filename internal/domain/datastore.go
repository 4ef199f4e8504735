package domain

import (
	"context"
	"time"
)

// Profile is a customer profile record from the auxiliary store.
type Profile struct {
	CustomerID        string    `json:"customerId"`
	CustomerName      string    `json:"customerName,omitempty"`
	CustomerSince     time.Time `json:"customerSince"`
	AccountAgeDays    int       `json:"accountAgeDays"`
	HomeCountry       string    `json:"homeCountry,omitempty"`
	RiskLevel         string    `json:"customerRiskLevel"`
	KYCVerified       bool      `json:"kycVerified"`
	AvgTransferAmount float64   `json:"avgTransactionAmount"`
	PriorFraudCases   int       `json:"previousFraudCases"`
	PEP               bool      `json:"pepStatus"`
	Watchlisted       bool      `json:"watchlisted"`
}

// LoginEvent is one authentication event for a customer.
type LoginEvent struct {
	CustomerID    string    `json:"customerId"`
	Timestamp     time.Time `json:"loginTimestamp"`
	IPAddress     string    `json:"ipAddress,omitempty"`
	Country       string    `json:"country"`
	City          string    `json:"city,omitempty"`
	DeviceType    string    `json:"deviceType,omitempty"`
	Successful    bool      `json:"loginSuccessful"`
	TwoFactorUsed bool      `json:"twoFactorUsed"`
}

// Device is a registered device fingerprint record.
type Device struct {
	CustomerID      string    `json:"customerId"`
	DeviceID        string    `json:"deviceId"`
	Fingerprint     string    `json:"deviceFingerprint,omitempty"`
	FirstSeen       time.Time `json:"firstSeen"`
	LastSeen        time.Time `json:"lastSeen"`
	DeviceType      string    `json:"deviceType,omitempty"`
	OS              string    `json:"os,omitempty"`
	Trusted         bool      `json:"isTrusted"`
	LocationChanges int       `json:"locationChanges"`
	Suspicious      bool      `json:"suspiciousBehavior"`
}

// DataStore is the read-only lookup of customer auxiliary records used
// by the investigation stage. An unknown customer id yields empty
// results, never an error.
type DataStore interface {
	// Profile returns the customer profile, or nil when none exists.
	Profile(ctx context.Context, customerID string) (*Profile, error)

	// RecentLogins returns up to limit login events sorted newest-first.
	RecentLogins(ctx context.Context, customerID string, limit int) ([]LoginEvent, error)

	// Devices returns all registered device records for the customer.
	Devices(ctx context.Context, customerID string) ([]Device, error)
}

// Repository extends DataStore with the write and persistence
// operations the service needs.
type Repository interface {
	DataStore

	// Transfer operations
	SaveTransfer(ctx context.Context, t *Transfer) error
	GetTransfer(ctx context.Context, transferID string) (*Transfer, error)
	ListTransfers(ctx context.Context, limit int) ([]*Transfer, error)

	// Auxiliary record writes (seeding / ingestion)
	SaveProfile(ctx context.Context, p *Profile) error
	SaveLogin(ctx context.Context, l *LoginEvent) error
	SaveDevice(ctx context.Context, d *Device) error

	// Result bundles
	SaveResult(ctx context.Context, r *Result) error
	GetResult(ctx context.Context, transferID string) (*Result, error)

	// Screening rule configuration
	SaveScreeningRule(ctx context.Context, rule *ScreeningRule) error
	ListScreeningRules(ctx context.Context) ([]*ScreeningRule, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

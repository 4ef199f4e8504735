// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveTransfer stores a transfer, replacing any previous row with the
// same id so reprocessing is idempotent.
func (r *SQLRepository) SaveTransfer(ctx context.Context, t *domain.Transfer) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("%w: transfer id is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO transfers (
			id, customer_id, timestamp, amount, currency,
			beneficiary_name, beneficiary_account, beneficiary_bank, beneficiary_country,
			transfer_type, transfer_purpose, transfer_channel,
			ml_score, velocity_flag, amount_anomaly, geo_anomaly
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			customer_id = excluded.customer_id,
			timestamp = excluded.timestamp,
			amount = excluded.amount,
			currency = excluded.currency,
			beneficiary_name = excluded.beneficiary_name,
			beneficiary_account = excluded.beneficiary_account,
			beneficiary_bank = excluded.beneficiary_bank,
			beneficiary_country = excluded.beneficiary_country,
			transfer_type = excluded.transfer_type,
			transfer_purpose = excluded.transfer_purpose,
			transfer_channel = excluded.transfer_channel,
			ml_score = excluded.ml_score,
			velocity_flag = excluded.velocity_flag,
			amount_anomaly = excluded.amount_anomaly,
			geo_anomaly = excluded.geo_anomaly
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		t.ID, t.CustomerID, t.Timestamp, t.Amount, t.Currency,
		t.BeneficiaryName, t.BeneficiaryAccount, t.BeneficiaryBank, t.BeneficiaryCountry,
		t.TransferType, t.TransferPurpose, t.TransferChannel,
		t.MLScore, boolToInt(t.VelocityFlag), boolToInt(t.AmountAnomaly), boolToInt(t.GeoAnomaly),
	)
	return err
}

// GetTransfer retrieves a transfer by id.
func (r *SQLRepository) GetTransfer(ctx context.Context, transferID string) (*domain.Transfer, error) {
	query := `
		SELECT id, customer_id, timestamp, amount, currency,
			   beneficiary_name, beneficiary_account, beneficiary_bank, beneficiary_country,
			   transfer_type, transfer_purpose, transfer_channel,
			   ml_score, velocity_flag, amount_anomaly, geo_anomaly
		FROM transfers
		WHERE id = ?
	`

	row := r.db.QueryRowContext(ctx, r.rebind(query), transferID)
	t, err := scanTransfer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTransfers retrieves the most recent transfers up to limit.
func (r *SQLRepository) ListTransfers(ctx context.Context, limit int) ([]*domain.Transfer, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, customer_id, timestamp, amount, currency,
			   beneficiary_name, beneficiary_account, beneficiary_bank, beneficiary_country,
			   transfer_type, transfer_purpose, transfer_channel,
			   ml_score, velocity_flag, amount_anomaly, geo_anomaly
		FROM transfers
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*domain.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}

	return transfers, rows.Err()
}

// SaveProfile stores or replaces a customer profile.
func (r *SQLRepository) SaveProfile(ctx context.Context, p *domain.Profile) error {
	if p == nil || p.CustomerID == "" {
		return fmt.Errorf("%w: customer id is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO customer_profiles (
			customer_id, customer_name, customer_since, account_age_days,
			home_country, risk_level, kyc_verified, avg_transfer_amount,
			prior_fraud_cases, pep, watchlisted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(customer_id) DO UPDATE SET
			customer_name = excluded.customer_name,
			customer_since = excluded.customer_since,
			account_age_days = excluded.account_age_days,
			home_country = excluded.home_country,
			risk_level = excluded.risk_level,
			kyc_verified = excluded.kyc_verified,
			avg_transfer_amount = excluded.avg_transfer_amount,
			prior_fraud_cases = excluded.prior_fraud_cases,
			pep = excluded.pep,
			watchlisted = excluded.watchlisted
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		p.CustomerID, p.CustomerName, p.CustomerSince, p.AccountAgeDays,
		p.HomeCountry, p.RiskLevel, boolToInt(p.KYCVerified), p.AvgTransferAmount,
		p.PriorFraudCases, boolToInt(p.PEP), boolToInt(p.Watchlisted),
	)
	return err
}

// Profile retrieves a customer profile, or nil when none exists.
func (r *SQLRepository) Profile(ctx context.Context, customerID string) (*domain.Profile, error) {
	query := `
		SELECT customer_id, customer_name, customer_since, account_age_days,
			   home_country, risk_level, kyc_verified, avg_transfer_amount,
			   prior_fraud_cases, pep, watchlisted
		FROM customer_profiles
		WHERE customer_id = ?
	`

	var p domain.Profile
	var kyc, pep, watchlisted int

	err := r.db.QueryRowContext(ctx, r.rebind(query), customerID).Scan(
		&p.CustomerID, &p.CustomerName, &p.CustomerSince, &p.AccountAgeDays,
		&p.HomeCountry, &p.RiskLevel, &kyc, &p.AvgTransferAmount,
		&p.PriorFraudCases, &pep, &watchlisted,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.KYCVerified = kyc == 1
	p.PEP = pep == 1
	p.Watchlisted = watchlisted == 1

	return &p, nil
}

// SaveLogin appends a login event for a customer.
func (r *SQLRepository) SaveLogin(ctx context.Context, l *domain.LoginEvent) error {
	if l == nil || l.CustomerID == "" {
		return fmt.Errorf("%w: customer id is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO login_events (
			customer_id, timestamp, ip_address, country, city,
			device_type, successful, two_factor_used
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		l.CustomerID, l.Timestamp, l.IPAddress, l.Country, l.City,
		l.DeviceType, boolToInt(l.Successful), boolToInt(l.TwoFactorUsed),
	)
	return err
}

// RecentLogins retrieves up to limit login events, newest first.
func (r *SQLRepository) RecentLogins(ctx context.Context, customerID string, limit int) ([]domain.LoginEvent, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT customer_id, timestamp, ip_address, country, city,
			   device_type, successful, two_factor_used
		FROM login_events
		WHERE customer_id = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logins []domain.LoginEvent
	for rows.Next() {
		var l domain.LoginEvent
		var successful, twoFactor int

		if err := rows.Scan(
			&l.CustomerID, &l.Timestamp, &l.IPAddress, &l.Country, &l.City,
			&l.DeviceType, &successful, &twoFactor,
		); err != nil {
			return nil, err
		}

		l.Successful = successful == 1
		l.TwoFactorUsed = twoFactor == 1
		logins = append(logins, l)
	}

	return logins, rows.Err()
}

// SaveDevice stores or replaces a device fingerprint record.
func (r *SQLRepository) SaveDevice(ctx context.Context, d *domain.Device) error {
	if d == nil || d.CustomerID == "" || d.DeviceID == "" {
		return fmt.Errorf("%w: customer id and device id are required", ErrInvalidInput)
	}

	query := `
		INSERT INTO device_fingerprints (
			customer_id, device_id, fingerprint, first_seen, last_seen,
			device_type, os, trusted, location_changes, suspicious
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(customer_id, device_id) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			first_seen = excluded.first_seen,
			last_seen = excluded.last_seen,
			device_type = excluded.device_type,
			os = excluded.os,
			trusted = excluded.trusted,
			location_changes = excluded.location_changes,
			suspicious = excluded.suspicious
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		d.CustomerID, d.DeviceID, d.Fingerprint, d.FirstSeen, d.LastSeen,
		d.DeviceType, d.OS, boolToInt(d.Trusted), d.LocationChanges, boolToInt(d.Suspicious),
	)
	return err
}

// Devices retrieves all device records for a customer.
func (r *SQLRepository) Devices(ctx context.Context, customerID string) ([]domain.Device, error) {
	query := `
		SELECT customer_id, device_id, fingerprint, first_seen, last_seen,
			   device_type, os, trusted, location_changes, suspicious
		FROM device_fingerprints
		WHERE customer_id = ?
		ORDER BY device_id
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		var d domain.Device
		var trusted, suspicious int

		if err := rows.Scan(
			&d.CustomerID, &d.DeviceID, &d.Fingerprint, &d.FirstSeen, &d.LastSeen,
			&d.DeviceType, &d.OS, &trusted, &d.LocationChanges, &suspicious,
		); err != nil {
			return nil, err
		}

		d.Trusted = trusted == 1
		d.Suspicious = suspicious == 1
		devices = append(devices, d)
	}

	return devices, rows.Err()
}

// SaveResult stores the full result bundle for a transfer. The
// structured payload is kept as JSON alongside the query columns.
func (r *SQLRepository) SaveResult(ctx context.Context, res *domain.Result) error {
	if res == nil || res.Transfer.ID == "" {
		return fmt.Errorf("%w: transfer id is required", ErrInvalidInput)
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	category := ""
	if res.Classification != nil {
		category = string(res.Classification.Category)
	}
	action := ""
	caseID := ""
	if res.Review != nil {
		action = string(res.Review.Action)
		caseID = res.Review.CaseID
	}
	caseStatus := ""
	if res.Investigation != nil {
		caseStatus = string(res.Investigation.CaseStatus)
	}

	query := `
		INSERT INTO case_results (
			transfer_id, customer_id, category, action, case_id,
			case_status, error, payload, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(transfer_id) DO UPDATE SET
			customer_id = excluded.customer_id,
			category = excluded.category,
			action = excluded.action,
			case_id = excluded.case_id,
			case_status = excluded.case_status,
			error = excluded.error,
			payload = excluded.payload,
			created_at = excluded.created_at
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		res.Transfer.ID, res.Transfer.CustomerID, category, action, caseID,
		caseStatus, res.Err, string(payload), time.Now().UTC(),
	)
	return err
}

// GetResult retrieves the stored result bundle for a transfer.
func (r *SQLRepository) GetResult(ctx context.Context, transferID string) (*domain.Result, error) {
	query := `SELECT payload FROM case_results WHERE transfer_id = ?`

	var payload string
	err := r.db.QueryRowContext(ctx, r.rebind(query), transferID).Scan(&payload)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var res domain.Result
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("failed to parse stored result: %w", err)
	}

	return &res, nil
}

// SaveScreeningRule stores or replaces a screening rule configuration.
func (r *SQLRepository) SaveScreeningRule(ctx context.Context, rule *domain.ScreeningRule) error {
	if rule == nil || rule.ID == "" {
		return fmt.Errorf("%w: rule id is required", ErrInvalidInput)
	}
	if rule.Expression == "" {
		return fmt.Errorf("%w: rule expression is required", ErrInvalidInput)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO screening_rules (
			id, name, description, expression, risk_factor,
			escalate, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			expression = excluded.expression,
			risk_factor = excluded.risk_factor,
			escalate = excluded.escalate,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, rule.Name, rule.Description, rule.Expression, rule.RiskFactor,
		boolToInt(rule.Escalate), boolToInt(rule.Enabled),
		now, now,
	)
	return err
}

// ListScreeningRules retrieves all screening rules ordered by id.
func (r *SQLRepository) ListScreeningRules(ctx context.Context) ([]*domain.ScreeningRule, error) {
	query := `
		SELECT id, name, description, expression, risk_factor,
			   escalate, enabled, created_at, updated_at
		FROM screening_rules
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.ScreeningRule
	for rows.Next() {
		var rule domain.ScreeningRule
		var escalate, enabled int

		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.Description, &rule.Expression, &rule.RiskFactor,
			&escalate, &enabled, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, err
		}

		rule.Escalate = escalate == 1
		rule.Enabled = enabled == 1
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*domain.Transfer, error) {
	var t domain.Transfer
	var velocity, amountAnomaly, geoAnomaly int

	if err := row.Scan(
		&t.ID, &t.CustomerID, &t.Timestamp, &t.Amount, &t.Currency,
		&t.BeneficiaryName, &t.BeneficiaryAccount, &t.BeneficiaryBank, &t.BeneficiaryCountry,
		&t.TransferType, &t.TransferPurpose, &t.TransferChannel,
		&t.MLScore, &velocity, &amountAnomaly, &geoAnomaly,
	); err != nil {
		return nil, err
	}

	t.VelocityFlag = velocity == 1
	t.AmountAnomaly = amountAnomaly == 1
	t.GeoAnomaly = geoAnomaly == 1

	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}

package repository

// Schema definitions for the Harrier database.
// Compatible with both SQLite and PostgreSQL.

const schemaTransfers = `
CREATE TABLE IF NOT EXISTS transfers (
    id TEXT PRIMARY KEY,
    customer_id TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    amount REAL NOT NULL,
    currency TEXT NOT NULL,
    beneficiary_name TEXT,
    beneficiary_account TEXT,
    beneficiary_bank TEXT,
    beneficiary_country TEXT,
    transfer_type TEXT,
    transfer_purpose TEXT,
    transfer_channel TEXT,
    ml_score REAL NOT NULL,
    velocity_flag INTEGER NOT NULL DEFAULT 0,
    amount_anomaly INTEGER NOT NULL DEFAULT 0,
    geo_anomaly INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_transfers_customer ON transfers(customer_id);
CREATE INDEX IF NOT EXISTS idx_transfers_timestamp ON transfers(timestamp);
`

const schemaProfiles = `
CREATE TABLE IF NOT EXISTS customer_profiles (
    customer_id TEXT PRIMARY KEY,
    customer_name TEXT,
    customer_since TIMESTAMP NOT NULL,
    account_age_days INTEGER NOT NULL DEFAULT 0,
    home_country TEXT,
    risk_level TEXT,
    kyc_verified INTEGER NOT NULL DEFAULT 0,
    avg_transfer_amount REAL NOT NULL DEFAULT 0,
    prior_fraud_cases INTEGER NOT NULL DEFAULT 0,
    pep INTEGER NOT NULL DEFAULT 0,
    watchlisted INTEGER NOT NULL DEFAULT 0
);
`

const schemaLogins = `
CREATE TABLE IF NOT EXISTS login_events (
    customer_id TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    ip_address TEXT,
    country TEXT,
    city TEXT,
    device_type TEXT,
    successful INTEGER NOT NULL DEFAULT 1,
    two_factor_used INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_login_events_customer ON login_events(customer_id, timestamp);
`

const schemaDevices = `
CREATE TABLE IF NOT EXISTS device_fingerprints (
    customer_id TEXT NOT NULL,
    device_id TEXT NOT NULL,
    fingerprint TEXT,
    first_seen TIMESTAMP,
    last_seen TIMESTAMP,
    device_type TEXT,
    os TEXT,
    trusted INTEGER NOT NULL DEFAULT 0,
    location_changes INTEGER NOT NULL DEFAULT 0,
    suspicious INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (customer_id, device_id)
);

CREATE INDEX IF NOT EXISTS idx_device_fingerprints_customer ON device_fingerprints(customer_id);
`

const schemaResults = `
CREATE TABLE IF NOT EXISTS case_results (
    transfer_id TEXT PRIMARY KEY,
    customer_id TEXT NOT NULL,
    category TEXT,
    action TEXT,
    case_id TEXT,
    case_status TEXT,
    error TEXT,
    payload TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_case_results_customer ON case_results(customer_id);
CREATE INDEX IF NOT EXISTS idx_case_results_case ON case_results(case_id);
`

const schemaScreeningRules = `
CREATE TABLE IF NOT EXISTS screening_rules (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    expression TEXT NOT NULL,
    risk_factor TEXT NOT NULL,
    escalate INTEGER NOT NULL DEFAULT 0,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaTransfers,
		schemaProfiles,
		schemaLogins,
		schemaDevices,
		schemaResults,
		schemaScreeningRules,
	}
}

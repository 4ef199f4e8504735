// Package ingest reads transfer batches from external sources.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

// ReadTransfers parses a CSV export of wire transfers. Columns are
// matched by header name (case-insensitive); unknown columns are
// ignored and malformed rows are skipped.
func ReadTransfers(r io.Reader) ([]*domain.Transfer, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	required := []string{"transaction_id", "customer_id", "amount", "currency"}
	for _, col := range required {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	var transfers []*domain.Transfer

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		get := func(col string) string {
			if i, ok := colIndex[col]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		amount, err := strconv.ParseFloat(get("amount"), 64)
		if err != nil {
			continue
		}
		mlScore, _ := strconv.ParseFloat(get("ml_fraud_score"), 64)

		timestamp := time.Now().UTC()
		if raw := get("timestamp"); raw != "" {
			if ts, err := time.Parse(time.RFC3339, raw); err == nil {
				timestamp = ts
			}
		}

		transfers = append(transfers, &domain.Transfer{
			ID:                 get("transaction_id"),
			CustomerID:         get("customer_id"),
			Timestamp:          timestamp,
			Amount:             amount,
			Currency:           get("currency"),
			BeneficiaryName:    get("beneficiary_name"),
			BeneficiaryAccount: get("beneficiary_account"),
			BeneficiaryBank:    get("beneficiary_bank"),
			BeneficiaryCountry: get("beneficiary_country"),
			TransferType:       get("transfer_type"),
			TransferPurpose:    get("transfer_purpose"),
			TransferChannel:    get("transfer_channel"),
			MLScore:            mlScore,
			VelocityFlag:       parseBool(get("velocity_flag")),
			AmountAnomaly:      parseBool(get("amount_anomaly")),
			GeoAnomaly:         parseBool(get("geo_anomaly")),
		})
	}

	return transfers, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

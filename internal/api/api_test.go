package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

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

func newTestServer(t *testing.T) *Server {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "harrier-api-test-*.db")
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

	engine, err := screening.NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if err := engine.LoadRules(screening.DefaultRules()); err != nil {
		t.Fatalf("failed to load rules: %v", err)
	}

	// Fallback-only oracle keeps API tests deterministic.
	textOracle := oracle.NewResilient(nil)

	p := pipeline.New(
		classifier.New(textOracle),
		reviewer.New(textOracle),
		investigator.New(textOracle, repo),
		pipeline.Options{
			Screening:  engine,
			Repository: repo,
		},
	)

	return NewServer(domain.ServerConfig{Host: "127.0.0.1", Port: 0}, repo, cache.NewLRUCache(100), nil, engine, p, "test")
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %s: %v", rec.Body.String(), err)
	}
}

func TestProcessTransferEndpoint(t *testing.T) {
	srv := newTestServer(t)

	t.Run("full pipeline round trip", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/transfers", &domain.Transfer{
			ID:         "TXN_00000500",
			CustomerID: "CUST_0500",
			Amount:     9000,
			Currency:   "SAR",
			MLScore:    0.88,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var resp ProcessResponse
		decodeJSON(t, rec, &resp)

		if resp.Result.Classification == nil {
			t.Fatal("expected a classification")
		}
		if resp.Result.Classification.Category != domain.CategoryFlagged {
			t.Errorf("category = %s", resp.Result.Classification.Category)
		}
		if resp.Metadata.Version != "test" {
			t.Errorf("version = %s", resp.Metadata.Version)
		}

		// The result was persisted and is retrievable.
		rec = doRequest(t, srv, http.MethodGet, "/transfers/TXN_00000500", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET transfer status = %d", rec.Code)
		}

		rec = doRequest(t, srv, http.MethodGet, "/results/TXN_00000500", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET result status = %d", rec.Code)
		}
		var result domain.Result
		decodeJSON(t, rec, &result)
		if result.Transfer.ID != "TXN_00000500" {
			t.Errorf("stored transfer id = %s", result.Transfer.ID)
		}
	})

	t.Run("generates transfer id when missing", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/transfers", &domain.Transfer{
			CustomerID: "CUST_0501",
			Amount:     100,
			Currency:   "SAR",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var resp ProcessResponse
		decodeJSON(t, rec, &resp)
		if len(resp.Result.Transfer.ID) < 5 || resp.Result.Transfer.ID[:4] != "TXN_" {
			t.Errorf("generated id = %s", resp.Result.Transfer.ID)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/transfers", "{not json")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("validation failure", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/transfers", &domain.Transfer{
			CustomerID: "CUST_0502",
			Amount:     -5,
			Currency:   "SAR",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestProcessBatchEndpoint(t *testing.T) {
	srv := newTestServer(t)

	t.Run("batch with statistics", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/batch", BatchRequest{
			Transfers: []*domain.Transfer{
				{ID: "TXN_B1", CustomerID: "C1", Amount: 100, Currency: "SAR", MLScore: 0.10},
				{ID: "TXN_B2", CustomerID: "C2", Amount: 200, Currency: "SAR", MLScore: 0.90},
			},
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var resp BatchResponse
		decodeJSON(t, rec, &resp)
		if len(resp.Results) != 2 {
			t.Errorf("results = %d", len(resp.Results))
		}
		if resp.Statistics.Total != 2 {
			t.Errorf("total = %d", resp.Statistics.Total)
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/batch", BatchRequest{})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("oversized batch", func(t *testing.T) {
		transfers := make([]*domain.Transfer, maxBatchSize+1)
		for i := range transfers {
			transfers[i] = &domain.Transfer{ID: fmt.Sprintf("TXN_%d", i), CustomerID: "C", Amount: 1, Currency: "SAR"}
		}
		rec := doRequest(t, srv, http.MethodPost, "/batch", BatchRequest{Transfers: transfers})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestRetrievalNotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/transfers/TXN_NOPE", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("transfer status = %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/results/TXN_NOPE", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("result status = %d", rec.Code)
	}
}

func TestRulesEndpoints(t *testing.T) {
	srv := newTestServer(t)

	t.Run("list built-in rules", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/rules", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var resp struct {
			Rules []*domain.ScreeningRule `json:"rules"`
			Count int                     `json:"count"`
		}
		decodeJSON(t, rec, &resp)
		if resp.Count != 3 {
			t.Errorf("count = %d, want the 3 defaults", resp.Count)
		}
	})

	t.Run("get rule by id", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/rules/aml-high-value", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var rule domain.ScreeningRule
		decodeJSON(t, rec, &rule)
		if rule.ID != "aml-high-value" {
			t.Errorf("id = %s", rule.ID)
		}
	})

	t.Run("get unknown rule", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/rules/nope", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("create rule rejects bad CEL", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/rules", &domain.ScreeningRule{
			ID:         "bad-rule",
			Name:       "Bad",
			Expression: "amount >>",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("create rule requires fields", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/rules", &domain.ScreeningRule{ID: "x"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("create and hot reload", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/rules", &domain.ScreeningRule{
			ID:         "high-ml",
			Name:       "High ML score",
			Expression: `ml_score > 0.95`,
			RiskFactor: "ML score near certainty",
			Escalate:   true,
			Enabled:    true,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
		}

		// Reload pulls from the database, which holds only the new rule
		// (the defaults were loaded directly into the engine).
		rec = doRequest(t, srv, http.MethodPost, "/rules/reload", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("reload status = %d: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			Count int `json:"count"`
		}
		decodeJSON(t, rec, &resp)
		if resp.Count != 1 {
			t.Errorf("count after reload = %d, want 1", resp.Count)
		}

		rec = doRequest(t, srv, http.MethodGet, "/rules/high-ml", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("new rule should be loaded, status = %d", rec.Code)
		}
	})
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var health map[string]string
	decodeJSON(t, rec, &health)
	if health["status"] != "healthy" {
		t.Errorf("status = %s", health["status"])
	}
	if health["version"] != "test" {
		t.Errorf("version = %s", health["version"])
	}

	rec = doRequest(t, srv, http.MethodGet, "/ready", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/health", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header from tracing middleware")
	}
}

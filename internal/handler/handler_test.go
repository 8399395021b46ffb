package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/paytraq_sync/internal/config"
	"github.com/GTDGit/paytraq_sync/internal/lock"
	"github.com/GTDGit/paytraq_sync/internal/service"
	"github.com/GTDGit/paytraq_sync/pkg/gsheets"
	"github.com/GTDGit/paytraq_sync/pkg/paytraq"
)

// stubCatalog stands in for the PayTraq client.
type stubCatalog struct {
	products []paytraq.Product
	debug    []string
	err      error
}

func (s *stubCatalog) FetchAllProducts(ctx context.Context, opts paytraq.FetchOptions) ([]paytraq.Product, []string, error) {
	return s.products, s.debug, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		PayTraq: config.PayTraqConfig{APIKey: "key", APIToken: "token"},
		Sync:    config.SyncConfig{Timezone: "UTC", LogGranularity: config.LogPerField},
	}
}

// newSheetRouter wires the sheet endpoints the way main does, with the
// catalog stubbed out. A non-nil sheets client is enough for the paths
// exercised here; no spreadsheet call is ever reached.
func newSheetRouter(catalog *stubCatalog, cfg *config.Config, sheets *gsheets.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	productSvc := service.NewProductService(catalog)
	syncSvc := service.NewSyncService(time.UTC)
	h := NewSheetHandler(productSvc, syncSvc, sheets, nil, cfg, time.UTC)

	r := gin.New()
	r.GET("/export-all-products-to-sheet", h.ExportAll)
	r.GET("/sync-today-products-to-sheet", h.SyncToday)
	r.GET("/sync-updated-products-to-sheet", h.SyncUpdated)
	return r
}

type errorBody struct {
	OK    bool     `json:"ok"`
	Code  string   `json:"code"`
	Error string   `json:"error"`
	Debug []string `json:"debug"`
}

func doGet(t *testing.T, r *gin.Engine, path string) (int, errorBody) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v (%s)", err, w.Body.String())
	}
	return w.Code, body
}

func TestSheetParamValidation(t *testing.T) {
	validPath := "/export-all-products-to-sheet?spreadsheet_id=sheet1"

	t.Run("missing paytraq credentials", func(t *testing.T) {
		cfg := testConfig()
		cfg.PayTraq = config.PayTraqConfig{}
		r := newSheetRouter(&stubCatalog{}, cfg, &gsheets.Client{})

		status, body := doGet(t, r, validPath)
		if status != 400 || body.Code != "CONFIG_ERROR" {
			t.Fatalf("got %d %s, want 400 CONFIG_ERROR", status, body.Code)
		}
		if body.Error != "Missing PAYTRAQ_API_KEY or PAYTRAQ_API_TOKEN" {
			t.Fatalf("unexpected message: %q", body.Error)
		}
	})

	t.Run("missing google credentials", func(t *testing.T) {
		r := newSheetRouter(&stubCatalog{}, testConfig(), nil)

		status, body := doGet(t, r, validPath)
		if status != 400 || body.Code != "CONFIG_ERROR" {
			t.Fatalf("got %d %s, want 400 CONFIG_ERROR", status, body.Code)
		}
		if body.Error != "Missing GOOGLE_SERVICE_ACCOUNT_JSON" {
			t.Fatalf("unexpected message: %q", body.Error)
		}
	})

	t.Run("missing spreadsheet_id", func(t *testing.T) {
		r := newSheetRouter(&stubCatalog{}, testConfig(), &gsheets.Client{})

		status, body := doGet(t, r, "/sync-updated-products-to-sheet")
		if status != 400 || body.Code != "CONFIG_ERROR" {
			t.Fatalf("got %d %s, want 400 CONFIG_ERROR", status, body.Code)
		}
		if body.Error != "Missing spreadsheet_id parameter" {
			t.Fatalf("unexpected message: %q", body.Error)
		}
	})

	t.Run("invalid key column", func(t *testing.T) {
		r := newSheetRouter(&stubCatalog{}, testConfig(), &gsheets.Client{})

		status, body := doGet(t, r, validPath+"&key=Name")
		if status != 400 || body.Code != "CONFIG_ERROR" {
			t.Fatalf("got %d %s, want 400 CONFIG_ERROR", status, body.Code)
		}
		if body.Error != "key must be ItemID or Code" {
			t.Fatalf("unexpected message: %q", body.Error)
		}
	})
}

func TestUpstreamErrorMapping(t *testing.T) {
	validPath := "/export-all-products-to-sheet?spreadsheet_id=sheet1"

	cases := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"unauthorized", fmt.Errorf("%w: status 401", paytraq.ErrUnauthorized), "UPSTREAM_AUTH_ERROR"},
		{"http status", fmt.Errorf("%w: status 503", paytraq.ErrHTTPStatus), "UPSTREAM_HTTP_ERROR"},
		{"parse failure", fmt.Errorf("%w: malformed products xml", paytraq.ErrParse), "UPSTREAM_PARSE_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := &stubCatalog{err: tc.err, debug: []string{"page=1 status=503"}}
			r := newSheetRouter(catalog, testConfig(), &gsheets.Client{})

			status, body := doGet(t, r, validPath)
			if status != 502 || body.Code != tc.wantCode {
				t.Fatalf("got %d %s, want 502 %s", status, body.Code, tc.wantCode)
			}
			if len(body.Debug) == 0 {
				t.Fatal("paging diagnostics missing from error payload")
			}
		})
	}
}

func TestProductsUpdatedToday(t *testing.T) {
	newRouter := func(catalog *stubCatalog, cfg *config.Config) *gin.Engine {
		gin.SetMode(gin.TestMode)
		h := NewProductHandler(service.NewProductService(catalog), cfg.PayTraq, time.UTC)
		r := gin.New()
		r.GET("/products-updated-today", h.GetUpdatedToday)
		return r
	}

	t.Run("missing credentials", func(t *testing.T) {
		cfg := testConfig()
		cfg.PayTraq = config.PayTraqConfig{}
		r := newRouter(&stubCatalog{}, cfg)

		status, body := doGet(t, r, "/products-updated-today")
		if status != 400 || body.Code != "CONFIG_ERROR" {
			t.Fatalf("got %d %s, want 400 CONFIG_ERROR", status, body.Code)
		}
	})

	t.Run("upstream auth failure", func(t *testing.T) {
		catalog := &stubCatalog{err: fmt.Errorf("%w: status 401", paytraq.ErrUnauthorized)}
		r := newRouter(catalog, testConfig())

		status, body := doGet(t, r, "/products-updated-today")
		if status != 502 || body.Code != "UPSTREAM_AUTH_ERROR" {
			t.Fatalf("got %d %s, want 502 UPSTREAM_AUTH_ERROR", status, body.Code)
		}
	})
}

func TestFailFromError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(err error) (int, errorBody) {
		r := gin.New()
		r.GET("/", func(c *gin.Context) { failFromError(c, err, nil) })
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		var body errorBody
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON response: %v", err)
		}
		return w.Code, body
	}

	t.Run("spreadsheet failures stay opaque", func(t *testing.T) {
		status, body := serve(fmt.Errorf("%w: update values: quota exceeded for sheet1", gsheets.ErrAccess))
		if status != 500 || body.Code != "MIRROR_ACCESS_ERROR" {
			t.Fatalf("got %d %s, want 500 MIRROR_ACCESS_ERROR", status, body.Code)
		}
		if body.Error != "spreadsheet access error" {
			t.Fatalf("underlying cause leaked: %q", body.Error)
		}
	})

	t.Run("missing key column is a config error", func(t *testing.T) {
		status, body := serve(fmt.Errorf("%w: %q", gsheets.ErrKeyColumn, "Code"))
		if status != 400 || body.Code != "CONFIG_ERROR" {
			t.Fatalf("got %d %s, want 400 CONFIG_ERROR", status, body.Code)
		}
	})

	t.Run("held lock reports a conflict", func(t *testing.T) {
		status, body := serve(fmt.Errorf("%w: spreadsheet sheet1", lock.ErrHeld))
		if status != 409 || body.Code != "SYNC_IN_PROGRESS" {
			t.Fatalf("got %d %s, want 409 SYNC_IN_PROGRESS", status, body.Code)
		}
	})

	t.Run("unknown errors fall through to 500", func(t *testing.T) {
		status, body := serve(fmt.Errorf("something else"))
		if status != 500 || body.Code != "INTERNAL_ERROR" {
			t.Fatalf("got %d %s, want 500 INTERNAL_ERROR", status, body.Code)
		}
		if body.Error != "internal error" {
			t.Fatalf("underlying cause leaked: %q", body.Error)
		}
	})
}

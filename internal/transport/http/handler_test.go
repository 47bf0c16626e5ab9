package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"faultline/internal/domain/defect"
	"faultline/internal/infrastructure/cache"
	"faultline/internal/infrastructure/persistence/sqlite/model"
	"faultline/internal/infrastructure/persistence/sqlite/repository"
	"faultline/internal/infrastructure/persistence/sqlite/uow"
	defectuc "faultline/internal/usecase/defect"
	syncuc "faultline/internal/usecase/sync"
)

type nullGateway struct{}

func (nullGateway) CreateDefect(context.Context, []byte) error { return nil }
func (nullGateway) UpdateDefect(context.Context, []byte) error { return nil }
func (nullGateway) DeleteDefect(context.Context, []byte) error { return nil }
func (nullGateway) CloseDefect(context.Context, []byte) error  { return nil }
func (nullGateway) ReopenDefect(context.Context, []byte) error { return nil }

func setupRouter(t *testing.T) http.Handler {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "api.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(
		&model.Defect{},
		&model.DefectAction{},
		&model.DefectAttachment{},
		&model.DefectComment{},
		&model.DefectHistory{},
		&model.Counter{},
		&model.Settings{},
		&model.OutboxEntry{},
		&model.DeadLetter{},
		&model.KV{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	unit := uow.NewUnitOfWork(db)
	outbox := repository.NewOutboxRepository(db)
	service := defectuc.NewService(
		repository.NewDefectRepository(db),
		repository.NewSettingsRepository(db),
		outbox,
		unit,
		cache.NewSQLiteCache(db),
		defectuc.NewCodeGenerator(repository.NewSequenceRepository(db), unit),
		defect.DefaultRoleTable(),
	)
	processor := syncuc.NewProcessor(outbox, nullGateway{}, time.Second)
	return NewRouter(NewHandler(service, processor))
}

func doRequest(t *testing.T, router http.Handler, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Actor-Id", "u1")
	req.Header.Set("X-Actor-Name", "Pat")
	req.Header.Set("X-Actor-Role", role)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeDefect(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestCreateAndFetchDefect(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/defects", "engineer", map[string]any{
		"Title":    "bearing noise",
		"Severity": "high",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	created := decodeDefect(t, rec)
	id, _ := created["ID"].(string)
	code, _ := created["Code"].(string)
	if id == "" || code != "DEF-000001" {
		t.Fatalf("created = %+v", created)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/defects/"+id, "viewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/defects/code/def000001", "viewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get by code status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodGet, "/api/defects/resolve?q=DEF-1", "viewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodGet, "/api/defects/missing", "viewer", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get missing status = %d", rec.Code)
	}
}

func TestDefectStatusEndpoint(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/defects", "engineer", map[string]any{
		"Title":    "bearing noise",
		"Severity": "low",
	})
	created := decodeDefect(t, rec)
	id := created["ID"].(string)

	rec = doRequest(t, router, http.MethodGet, "/api/defects/"+id+"/status", "viewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeDefect(t, rec)
	if body["status"] != "open" || body["id"] != id {
		t.Fatalf("status body = %+v", body)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/defects/missing/status", "viewer", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", rec.Code)
	}
}

func TestCreateDefectRejections(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/defects", "viewer", map[string]any{
		"Title":    "x",
		"Severity": "low",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("viewer create status = %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/defects", "engineer", map[string]any{
		"Severity": "nope",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid create status = %d", rec.Code)
	}
	body := decodeDefect(t, rec)
	reasons, _ := body["reasons"].([]any)
	if len(reasons) != 2 {
		t.Fatalf("reasons = %v", body)
	}
}

func TestCloseOverHTTP(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/defects", "engineer", map[string]any{
		"Title":    "oil leak",
		"Severity": "low",
	})
	created := decodeDefect(t, rec)
	id := created["ID"].(string)

	rec = doRequest(t, router, http.MethodPost, "/api/defects/"+id+"/close", "engineer", map[string]any{
		"Resolution": "",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("close without resolution status = %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/defects/"+id+"/close", "engineer", map[string]any{
		"Resolution": "wiped and resealed",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("close status = %d body=%s", rec.Code, rec.Body.String())
	}
	closed := decodeDefect(t, rec)
	if closed["Status"] != "closed" {
		t.Fatalf("closed = %+v", closed)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/defects/"+id+"/reopen", "supervisor", map[string]any{
		"mode": "same_occurrence",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reopen status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestQueryAndSummaryEndpoints(t *testing.T) {
	router := setupRouter(t)

	doRequest(t, router, http.MethodPost, "/api/defects", "engineer", map[string]any{
		"Title":    "exposed wiring",
		"Severity": "high",
	})
	doRequest(t, router, http.MethodPost, "/api/defects", "engineer", map[string]any{
		"Title":    "worn belt",
		"Severity": "low",
	})

	rec := doRequest(t, router, http.MethodGet, "/api/defects?unsafe=true", "viewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("query status = %d", rec.Code)
	}
	body := decodeDefect(t, rec)
	if count, _ := body["count"].(float64); count != 1 {
		t.Fatalf("query body = %+v", body)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/defects/summary", "viewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
	summary := decodeDefect(t, rec)
	if total, _ := summary["total"].(float64); total != 2 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestSyncEndpoints(t *testing.T) {
	router := setupRouter(t)

	doRequest(t, router, http.MethodPost, "/api/defects", "engineer", map[string]any{
		"Title":    "oil leak",
		"Severity": "low",
	})

	rec := doRequest(t, router, http.MethodPost, "/api/sync/flush", "admin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("flush status = %d body=%s", rec.Code, rec.Body.String())
	}
	report := decodeDefect(t, rec)
	if delivered, _ := report["delivered"].(float64); delivered != 1 {
		t.Fatalf("flush report = %+v", report)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/sync/status", "admin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status status = %d", rec.Code)
	}
	status := decodeDefect(t, rec)
	if pending, _ := status["pending"].(float64); pending != 0 {
		t.Fatalf("sync status = %+v", status)
	}
}

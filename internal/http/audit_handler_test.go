package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quiz-audit/internal/domain"
	"quiz-audit/internal/quiz"
	"quiz-audit/internal/repository"
	"quiz-audit/internal/service"
)

type mockHistory struct {
	runs  []repository.AuditRunSummary
	err   error
	limit int
}

func (m *mockHistory) Save(_ context.Context, report domain.AuditReport) error {
	m.runs = append([]repository.AuditRunSummary{{ID: report.ID, Passed: report.Passed}}, m.runs...)
	return m.err
}

func (m *mockHistory) ListRuns(_ context.Context, limit int) ([]repository.AuditRunSummary, error) {
	m.limit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.runs, nil
}

// fourAxisQuiz tiene un personaje por respuesta.
func fourAxisQuiz() *domain.Quiz {
	q := &domain.Quiz{Title: "four axes"}
	q.Questions = []domain.Question{{
		Answers: []domain.Answer{
			{Text: "a", Traits: domain.TraitVector{1}},
			{Text: "b", Traits: domain.TraitVector{0, 1}},
			{Text: "c", Traits: domain.TraitVector{0, 0, 1}},
			{Text: "d", Traits: domain.TraitVector{0, 0, 0, 1}},
		},
	}}
	q.Characters = []domain.Character{
		{ID: "a", Name: "Alpha", Traits: domain.TraitVector{1}},
		{ID: "b", Name: "Beta", Traits: domain.TraitVector{0, 1}},
		{ID: "c", Name: "Gamma", Traits: domain.TraitVector{0, 0, 1}},
		{ID: "d", Name: "Delta", Traits: domain.TraitVector{0, 0, 0, 1}},
	}
	return q
}

func setupAuditRouter(history repository.AuditRepository) (*gin.Engine, service.AuditStore) {
	return setupLimitedAuditRouter(history, nil)
}

func setupLimitedAuditRouter(history repository.AuditRepository, limiter service.RateLimiter) (*gin.Engine, service.AuditStore) {
	gin.SetMode(gin.TestMode)
	q := fourAxisQuiz()
	store := service.NewMemoryAuditStore()
	recorders := []service.AuditRecorder{store}
	if history != nil {
		recorders = append(recorders, history)
	}
	svc := service.NewAuditService(q, quiz.NewCosineModel(q), zap.NewNop(), service.RunParams{Rounds: 400, Attempts: 20}, recorders...)
	h := NewAuditHandler(zap.NewNop(), svc, store, history, limiter, 1000, 100)
	return NewRouter(zap.NewNop(), h), store
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeAudit(t *testing.T, rec *httptest.ResponseRecorder) (domain.AuditReport, int) {
	t.Helper()
	var resp struct {
		Audit    domain.AuditReport `json:"audit"`
		ExitCode int                `json:"exit_code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return resp.Audit, resp.ExitCode
}

func TestAuditHandlerRunAndFetch(t *testing.T) {
	r, _ := setupAuditRouter(nil)

	rec := performRequest(r, http.MethodPost, "/audits", map[string]any{"seed": 5})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	audit, exitCode := decodeAudit(t, rec)
	if audit.ID == "" || audit.Seed != 5 {
		t.Fatalf("unexpected audit: %+v", audit)
	}
	if exitCode != service.ExitCode(audit) {
		t.Fatalf("exit code %d does not match verdict %v", exitCode, audit.Passed)
	}
	if audit.UnreachableCount() != 0 {
		t.Fatalf("every axis should be reachable, got %+v", audit.Reachability)
	}

	rec = performRequest(r, http.MethodGet, "/audits/"+audit.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	fetched, _ := decodeAudit(t, rec)
	if fetched.ID != audit.ID {
		t.Fatalf("expected %s, got %s", audit.ID, fetched.ID)
	}

	rec = performRequest(r, http.MethodGet, "/audits/latest", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	latest, _ := decodeAudit(t, rec)
	if latest.ID != audit.ID {
		t.Fatalf("expected latest %s, got %s", audit.ID, latest.ID)
	}

	rec = performRequest(r, http.MethodGet, "/audits/"+audit.ID+"/report", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("expected text/plain, got %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "Reachable: 4 / 4") {
		t.Fatalf("expected rendered report, got:\n%s", rec.Body.String())
	}
}

func TestAuditHandlerRunWithoutBody(t *testing.T) {
	r, _ := setupAuditRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/audits", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	audit, _ := decodeAudit(t, rec)
	if audit.Distribution.Rounds != 400 || audit.Attempts != 20 {
		t.Fatalf("expected service defaults, got rounds %d attempts %d", audit.Distribution.Rounds, audit.Attempts)
	}
	if audit.Seed == 0 {
		t.Fatalf("expected a generated seed")
	}
}

func TestAuditHandlerRunInvalid(t *testing.T) {
	r, _ := setupAuditRouter(nil)

	tests := []struct {
		name string
		body any
	}{
		{name: "rounds over cap", body: map[string]any{"rounds": 5000}},
		{name: "negative attempts", body: map[string]any{"attempts": -1}},
		{name: "wrong type", body: map[string]any{"rounds": "lots"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := performRequest(r, http.MethodPost, "/audits", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestAuditHandlerRateLimited(t *testing.T) {
	r, _ := setupLimitedAuditRouter(nil, service.NewMemoryRateLimiter(time.Minute, 1))

	if rec := performRequest(r, http.MethodPost, "/audits", map[string]any{"seed": 1}); rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if rec := performRequest(r, http.MethodPost, "/audits", map[string]any{"seed": 2}); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
}

func TestAuditHandlerNotFound(t *testing.T) {
	r, _ := setupAuditRouter(nil)

	for _, path := range []string{"/audits/latest", "/audits/missing", "/audits/missing/report"} {
		rec := performRequest(r, http.MethodGet, path, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected status 404, got %d", path, rec.Code)
		}
	}
}

func TestAuditHandlerListAudits(t *testing.T) {
	t.Run("history disabled", func(t *testing.T) {
		r, _ := setupAuditRouter(nil)
		rec := performRequest(r, http.MethodGet, "/audits", nil)
		if rec.Code != http.StatusNotImplemented {
			t.Fatalf("expected status 501, got %d", rec.Code)
		}
	})

	t.Run("lists saved runs", func(t *testing.T) {
		history := &mockHistory{}
		r, _ := setupAuditRouter(history)
		if rec := performRequest(r, http.MethodPost, "/audits", map[string]any{"seed": 1}); rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", rec.Code)
		}
		rec := performRequest(r, http.MethodGet, "/audits?limit=5", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if history.limit != 5 {
			t.Fatalf("expected limit 5, got %d", history.limit)
		}
		var resp struct {
			Audits []repository.AuditRunSummary `json:"audits"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(resp.Audits) != 1 {
			t.Fatalf("expected 1 run, got %d", len(resp.Audits))
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		r, _ := setupAuditRouter(&mockHistory{})
		rec := performRequest(r, http.MethodGet, "/audits?limit=0", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("backend error", func(t *testing.T) {
		r, _ := setupAuditRouter(&mockHistory{err: errors.New("db down")})
		rec := performRequest(r, http.MethodGet, "/audits", nil)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", rec.Code)
		}
	})
}

func TestAuditHandlerMatch(t *testing.T) {
	r, _ := setupAuditRouter(nil)

	rec := performRequest(r, http.MethodPost, "/match", map[string]string{"sequence": "[c]"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Sequence string             `json:"sequence"`
		Match    domain.MatchResult `json:"match"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Sequence != "C" || resp.Match.Character.ID != "c" {
		t.Fatalf("expected C -> c, got %s -> %s", resp.Sequence, resp.Match.Character.ID)
	}

	for _, body := range []map[string]string{{}, {"sequence": "AB"}, {"sequence": "E"}} {
		rec := performRequest(r, http.MethodPost, "/match", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%v: expected status 400, got %d", body, rec.Code)
		}
	}
}

func TestAuditHandlerQuizAndHealth(t *testing.T) {
	r, _ := setupAuditRouter(nil)

	rec := performRequest(r, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	rec = performRequest(r, http.MethodGet, "/quiz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp struct {
		Quiz domain.Quiz `json:"quiz"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Quiz.Title != "four axes" || len(resp.Quiz.Characters) != 4 {
		t.Fatalf("unexpected quiz: %+v", resp.Quiz)
	}
}

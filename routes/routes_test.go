package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wanderplan/agi"
	"wanderplan/auth"
	"wanderplan/itinerary"
	"wanderplan/metrics"
	"wanderplan/middleware"
	"wanderplan/notify"
	"wanderplan/ratelim"
	"wanderplan/rdx"
	"wanderplan/users"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type app struct {
	router  *httprouter.Router
	metrics *metrics.Collector
}

func newApp(t *testing.T) *app {
	t.Helper()
	cache := rdx.NewMemory()
	tokens := middleware.NewAuthenticator([]byte("routes-secret"), cache)
	people := users.NewMemoryStore()
	dir := users.NewDirectory(people, cache)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	gen := agi.New(agi.Options{Models: []string{"gpt-4o-mini"}, Timeout: time.Second, Metrics: collector})

	hub := notify.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	svc := itinerary.NewService(itinerary.NewMemoryStore(), people, dir, gen, hub, collector)
	router := httprouter.New()
	RoutesWrapper(router, Deps{
		Auth:        &auth.Handlers{Users: people, Tokens: tokens, Revoked: cache, TokenTTL: time.Hour},
		Users:       &users.Handlers{Store: people, Directory: dir, UploadDir: t.TempDir()},
		Itineraries: &itinerary.Handlers{Service: svc, BaseURL: "http://example.test"},
		Hub:         hub,
		Tokens:      tokens,
		RateLimiter: ratelim.NewRateLimiter(1),
		Gatherer:    reg,
	})
	return &app{router: router, metrics: collector}
}

func (a *app) do(t *testing.T, method, path, body, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func (a *app) register(t *testing.T, email string) string {
	t.Helper()
	rec, env := a.do(t, http.MethodPost, "/api/auth/register",
		`{"name":"Ana","email":"`+email+`","password":"correct-horse"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	var s struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &s); err != nil || s.Token == "" {
		t.Fatalf("register: no token in %s", env.Data)
	}
	return s.Token
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	rec, env := a.do(t, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	a := newApp(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/itineraries"},
		{http.MethodPost, "/api/itineraries"},
		{http.MethodGet, "/api/itineraries/abc"},
		{http.MethodPost, "/api/itineraries/abc/collaborate"},
		{http.MethodGet, "/api/itineraries/abc/export/pdf"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodPost, "/api/auth/logout"},
	} {
		rec, _ := a.do(t, tc.method, tc.path, "{}", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: want 401, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestItineraryRoundTrip(t *testing.T) {
	a := newApp(t)
	token := a.register(t, "ana@example.com")

	rec, env := a.do(t, http.MethodGet, "/api/itineraries", "", token)
	if rec.Code != http.StatusOK || string(env.Data) != "[]" {
		t.Fatalf("empty list: %d %s", rec.Code, rec.Body.String())
	}

	rec, env = a.do(t, http.MethodPost, "/api/itineraries",
		`{"title":"Weekend","destination":"Porto","totalDays":2,"days":[{"activities":[]}]}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil || created.ID == "" {
		t.Fatalf("create: no id in %s", env.Data)
	}

	rec, _ = a.do(t, http.MethodGet, "/api/itineraries/"+created.ID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}

	other := a.register(t, "bo@example.com")
	rec, _ = a.do(t, http.MethodGet, "/api/itineraries/"+created.ID, "", other)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("stranger get: want 404, got %d", rec.Code)
	}
}

func TestGenerateIsRateLimited(t *testing.T) {
	a := newApp(t)
	token := a.register(t, "ana@example.com")
	body := `{"destination":"Paris","days":3}`

	rec, env := a.do(t, http.MethodPost, "/api/generate", body, token)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("first generate: want 500 without a credential, got %d", rec.Code)
	}
	if !strings.Contains(env.Message, "OPENAI_API_KEY") {
		t.Fatalf("expected a credential hint, got %q", env.Message)
	}

	rec, _ = a.do(t, http.MethodPost, "/api/generate", body, token)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second generate: want 429, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	a := newApp(t)
	a.metrics.RecordHTTPStatus(http.StatusOK)

	rec, _ := a.do(t, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `wanderplan_http_status_total{status_code="200"} 1`) {
		t.Fatalf("missing status counter in:\n%s", rec.Body.String())
	}
}

func TestUnauthenticatedGenerateDoesNotSpendBudget(t *testing.T) {
	a := newApp(t)
	body := `{"destination":"Paris","days":3}`

	for i := 0; i < 3; i++ {
		rec, _ := a.do(t, http.MethodPost, "/api/generate", body, "not-a-token")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("bad token %d: want 401, got %d", i, rec.Code)
		}
	}

	token := a.register(t, "ana@example.com")
	rec, _ := a.do(t, http.MethodPost, "/api/generate", body, token)
	if rec.Code == http.StatusTooManyRequests {
		t.Fatal("rejected requests from the same address used up the signed-in caller's budget")
	}
}

package itinerary

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wanderplan/agi"
	"wanderplan/globals"
	"wanderplan/rdx"
	"wanderplan/users"

	"github.com/julienschmidt/httprouter"
)

// asUser stands in for the JWT middleware: the caller id comes from X-User.
func asUser(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), globals.UserIDKey, r.Header.Get("X-User"))
		next(w, r.WithContext(ctx), ps)
	}
}

func newRouter(h *Handlers) *httprouter.Router {
	router := httprouter.New()
	router.POST("/api/generate", asUser(h.Generate))
	router.GET("/api/itineraries", asUser(h.List))
	router.POST("/api/itineraries", asUser(h.Create))
	router.GET("/api/itineraries/:id", asUser(h.Get))
	router.PUT("/api/itineraries/:id", asUser(h.Update))
	router.DELETE("/api/itineraries/:id", asUser(h.Delete))
	router.POST("/api/itineraries/:id/collaborate", asUser(h.AddCollaborator))
	router.DELETE("/api/itineraries/:id/collaborate", asUser(h.RemoveCollaborator))
	router.GET("/api/itineraries/:id/export/pdf", asUser(h.ExportPDF))
	router.GET("/api/itineraries/:id/export/ics", asUser(h.ExportICS))
	return router
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func call(t *testing.T, router http.Handler, user, method, path, body string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("X-User", user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad envelope %q: %v", rec.Body, err)
		}
	}
	return rec, resp
}

func createdID(t *testing.T, resp response) string {
	t.Helper()
	var it struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &it); err != nil || it.ID == "" {
		t.Fatalf("no id in %s", resp.Data)
	}
	return it.ID
}

func TestHTTPFlow(t *testing.T) {
	e := newEnv(t)
	router := newRouter(&Handlers{Service: e.svc, BaseURL: "https://plan.example"})

	rec, resp := call(t, router, "x", http.MethodPost, "/api/generate",
		`{"destination":"Paris","days":3,"budget":1000,"interests":"art, food","startDate":"2025-06-01"}`)
	if rec.Code != http.StatusCreated || !resp.Success {
		t.Fatalf("generate: %d %s", rec.Code, rec.Body)
	}
	id := createdID(t, resp)
	if !strings.Contains(string(resp.Data), `"collaborators":[]`) || !strings.Contains(string(resp.Data), `"isPublic":false`) {
		t.Errorf("new itinerary = %s", resp.Data)
	}

	rec, resp = call(t, router, "x", http.MethodPost, "/api/itineraries/"+id+"/collaborate", `{"email":"y@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("collaborate: %d %s", rec.Code, rec.Body)
	}
	if !strings.Contains(string(resp.Data), `"name":"Yara"`) {
		t.Errorf("collaborator not expanded: %s", resp.Data)
	}

	rec, resp = call(t, router, "x", http.MethodPost, "/api/itineraries/"+id+"/collaborate", `{"email":"x@example.com"}`)
	if rec.Code != http.StatusBadRequest || resp.Success || !strings.Contains(strings.ToLower(resp.Message), "cannot add yourself") {
		t.Errorf("self add: %d %+v", rec.Code, resp)
	}
	if rec, _ := call(t, router, "x", http.MethodPost, "/api/itineraries/"+id+"/collaborate", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing email: %d", rec.Code)
	}
	if rec, _ := call(t, router, "x", http.MethodPost, "/api/itineraries/"+id+"/collaborate", `{"email":"nobody@example.com"}`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown user: %d", rec.Code)
	}

	if rec, _ := call(t, router, "y", http.MethodPut, "/api/itineraries/"+id, `{"title":"Edited by Yara","owner":"y"}`); rec.Code != http.StatusOK {
		t.Errorf("collaborator update: %d", rec.Code)
	}
	if rec, _ := call(t, router, "y", http.MethodDelete, "/api/itineraries/"+id, ""); rec.Code != http.StatusNotFound {
		t.Errorf("collaborator delete: %d", rec.Code)
	}
	if rec, _ := call(t, router, "z", http.MethodGet, "/api/itineraries/"+id, ""); rec.Code != http.StatusNotFound {
		t.Errorf("stranger read: %d", rec.Code)
	}

	rec, resp = call(t, router, "x", http.MethodGet, "/api/itineraries/"+id, "")
	if rec.Code != http.StatusOK || !strings.Contains(string(resp.Data), `"title":"Edited by Yara"`) {
		t.Fatalf("read: %d %s", rec.Code, resp.Data)
	}
	if !strings.Contains(string(resp.Data), `"owner":{"id":"x"`) {
		t.Errorf("owner must stay x: %s", resp.Data)
	}

	rec, _ = call(t, router, "x", http.MethodGet, "/api/itineraries/"+id+"/export/pdf", "")
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Errorf("pdf export: %d %q", rec.Code, rec.Body.String()[:min(20, rec.Body.Len())])
	}
	rec, _ = call(t, router, "y", http.MethodGet, "/api/itineraries/"+id+"/export/ics", "")
	if rec.Code != http.StatusOK || strings.Count(rec.Body.String(), "BEGIN:VEVENT") != 3 {
		t.Errorf("ics export: %d %s", rec.Code, rec.Body)
	}

	rec, resp = call(t, router, "x", http.MethodDelete, "/api/itineraries/"+id+"/collaborate?userId=y", "")
	if rec.Code != http.StatusOK || !strings.Contains(string(resp.Data), `"collaborators":[]`) {
		t.Errorf("remove collaborator: %d %s", rec.Code, resp.Data)
	}
	if rec, _ := call(t, router, "x", http.MethodDelete, "/api/itineraries/"+id+"/collaborate", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("remove without id: %d", rec.Code)
	}

	rec, resp = call(t, router, "x", http.MethodDelete, "/api/itineraries/"+id, "")
	if rec.Code != http.StatusOK || resp.Message == "" {
		t.Errorf("owner delete: %d %+v", rec.Code, resp)
	}
	if rec, _ := call(t, router, "x", http.MethodGet, "/api/itineraries/"+id, ""); rec.Code != http.StatusNotFound {
		t.Errorf("read after delete: %d", rec.Code)
	}
}

func TestGenerateEndpointErrors(t *testing.T) {
	e := newEnv(t)
	router := newRouter(&Handlers{Service: e.svc})

	rec, resp := call(t, router, "x", http.MethodPost, "/api/generate", `{"destination":"Paris"}`)
	if rec.Code != http.StatusBadRequest || resp.Success || !strings.Contains(resp.Message, "days") {
		t.Errorf("missing params: %d %+v", rec.Code, resp)
	}
	if rec, _ := call(t, router, "x", http.MethodPost, "/api/generate", `{"destination":`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: %d", rec.Code)
	}

	e.genErr = &agi.ProviderError{Status: 401}
	rec, resp = call(t, router, "x", http.MethodPost, "/api/generate", `{"destination":"Paris","totalDays":2,"budget":"$500"}`)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(resp.Message, "OPENAI_API_KEY") {
		t.Errorf("exhausted: %d %+v", rec.Code, resp)
	}

	e.genErr = nil
	e.reply = "Sorry, I cannot plan that trip."
	rec, resp = call(t, router, "x", http.MethodPost, "/api/generate", `{"destination":"Paris","days":2,"budget":"$500"}`)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(resp.Message, "Sorry, I cannot") {
		t.Errorf("unparseable reply should carry a preview: %d %+v", rec.Code, resp)
	}
}

func TestGenerateWithoutCredential(t *testing.T) {
	people := users.NewMemoryStore()
	svc := NewService(NewMemoryStore(), people, users.NewDirectory(people, rdx.NewMemory()),
		agi.New(agi.Options{Models: []string{"m"}}), nil, nil)
	router := newRouter(&Handlers{Service: svc})

	rec, resp := call(t, router, "x", http.MethodPost, "/api/generate", `{"destination":"Paris","days":2,"budget":"$500"}`)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(resp.Message, "credential") || !strings.Contains(resp.Message, "OPENAI_API_KEY") {
		t.Errorf("%d %+v", rec.Code, resp)
	}
}

func TestManualCreateAndList(t *testing.T) {
	e := newEnv(t)
	router := newRouter(&Handlers{Service: e.svc})

	rec, resp := call(t, router, "x", http.MethodPost, "/api/itineraries",
		`{"destination":"Lisbon","totalDays":2,"budget":"€600","days":[{"activities":[{"time":"10:00","title":"Belém","description":"Tower and pastries","cost":4.5}]}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}
	if !strings.Contains(string(resp.Data), `"cost":4.5`) || !strings.Contains(string(resp.Data), `"title":"2-Day Trip to Lisbon"`) {
		t.Errorf("created = %s", resp.Data)
	}

	rec, resp = call(t, router, "x", http.MethodGet, "/api/itineraries", "")
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Code)
	}
	var list []json.RawMessage
	json.Unmarshal(resp.Data, &list)
	if len(list) != 1 {
		t.Errorf("list = %s", resp.Data)
	}

	_, resp = call(t, router, "z", http.MethodGet, "/api/itineraries", "")
	if string(resp.Data) != "[]" {
		t.Errorf("stranger list = %s", resp.Data)
	}
}

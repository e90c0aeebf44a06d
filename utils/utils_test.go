package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestSplitTags(t *testing.T) {
	got := SplitTags(" food, Museums ,food,, hiking ")
	want := []string{"food", "Museums", "hiking"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitTags = %v, want %v", got, want)
	}
	if got := SplitTags(""); got == nil || len(got) != 0 {
		t.Fatalf("empty input should give empty non-nil slice, got %#v", got)
	}
}

func TestSendResponseEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	SendResponse(rec, http.StatusCreated, map[string]string{"id": "x"}, "")

	var env struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated || !env.Success || env.Data["id"] != "x" {
		t.Fatalf("code=%d env=%+v", rec.Code, env)
	}

	rec = httptest.NewRecorder()
	SendError(rec, http.StatusNotFound, "Itinerary not found")
	var e Envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &e)
	if e.Success || e.Message != "Itinerary not found" {
		t.Fatalf("error env = %+v", e)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:5555"
	if got := ClientIP(r); got != "10.1.2.3" {
		t.Fatalf("ClientIP = %q", got)
	}
}

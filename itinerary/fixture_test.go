package itinerary

import (
	"context"
	"sync"
	"testing"
	"time"

	"wanderplan/agi"
	"wanderplan/models"
	"wanderplan/rdx"
	"wanderplan/users"
)

const parisReply = "```json\n" + `{
  "title": "Paris in Three Days",
  "days": [
    {"activities": [
      {"time": "09:00", "title": "Louvre", "description": "Start with the Denon wing", "location": "Rue de Rivoli", "duration": "3 hours", "cost": 22}
    ], "estimatedCost": 80},
    {"activities": [
      {"time": "Afternoon", "title": "Montmartre", "description": "Walk to Sacré-Cœur", "cost": "Free"}
    ], "notes": "Wear good shoes"},
    {"activities": [
      {"time": "19:30", "title": "Seine cruise", "description": "Sunset boat tour", "duration": "90 min", "cost": "€15"}
    ]}
  ],
  "summary": {"totalEstimatedCost": "$950", "highlights": ["Louvre"], "tips": ["Buy a Navigo pass"]}
}` + "\n```"

type notice struct{ id, action, by string }

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (r *recordingNotifier) Notify(id, action, by string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice{id, action, by})
}

func (r *recordingNotifier) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.notices))
	for i, n := range r.notices {
		out[i] = n.action
	}
	return out
}

type ingestRecorder struct {
	mu      sync.Mutex
	reasons []string
}

func (r *ingestRecorder) RecordHTTPStatus(int) {}
func (r *ingestRecorder) RecordGenerationAttempt(string, string) {}
func (r *ingestRecorder) RecordGenerationLatency(time.Duration) {}
func (r *ingestRecorder) RecordIngestFailure(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

type env struct {
	svc      *Service
	store    *MemoryStore
	people   *users.MemoryStore
	notifier *recordingNotifier
	metrics  *ingestRecorder
	calls    int
	reply    string
	genErr   error
}

// newEnv registers owner x, collaborator-to-be y and stranger z.
func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store:    NewMemoryStore(),
		people:   users.NewMemoryStore(),
		notifier: &recordingNotifier{},
		metrics:  &ingestRecorder{},
		reply:    parisReply,
	}
	for _, u := range []models.User{
		{UserID: "x", Name: "Xavier", Email: "x@example.com"},
		{UserID: "y", Name: "Yara", Email: "y@example.com"},
		{UserID: "z", Name: "Zed", Email: "z@example.com"},
	} {
		if err := e.people.Create(context.Background(), &u); err != nil {
			t.Fatal(err)
		}
	}

	gen := agi.NewWithCompleter(agi.CompleterFunc(func(context.Context, string, string, string) (string, error) {
		e.calls++
		return e.reply, e.genErr
	}), []string{"test-model"}, 0, nil)

	e.svc = NewService(e.store, e.people, users.NewDirectory(e.people, rdx.NewMemory()), gen, e.notifier, e.metrics)

	clock := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	e.svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return e
}

func (e *env) generate(t *testing.T, owner string) *models.Itinerary {
	t.Helper()
	it, err := e.svc.Generate(context.Background(), owner, GenerateRequest{
		Destination: "Paris", Days: 3, Budget: "$1000", Interests: []string{"art"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return it
}

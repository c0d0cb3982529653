package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/MichaelBlackwell/bidfoundry/internal/api/swarmhq"
	"github.com/MichaelBlackwell/bidfoundry/internal/domain"
)

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from domain.GenerationState
		want []domain.GenerationState
	}{
		{domain.StateQueued, []domain.GenerationState{domain.StateRunning, domain.StateError}},
		{domain.StateRunning, []domain.GenerationState{domain.StateComplete, domain.StateReview, domain.StateError}},
		{domain.StateComplete, nil},
		{domain.StateReview, nil},
		{domain.StateError, nil},
	}

	all := []domain.GenerationState{
		domain.StateQueued, domain.StateRunning,
		domain.StateComplete, domain.StateReview, domain.StateError,
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			allowed := map[domain.GenerationState]bool{}
			for _, s := range tt.want {
				allowed[s] = true
			}
			for _, to := range all {
				if got := CanTransition(tt.from, to); got != allowed[to] {
					t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, to, got, allowed[to])
				}
			}
		})
	}
}

// statusServer serves a scripted sequence of generation statuses.
type statusServer struct {
	mu       sync.Mutex
	statuses []domain.GenerationStatus
	idx      int
}

func (s *statusServer) next() domain.GenerationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statuses[s.idx]
	if s.idx < len(s.statuses)-1 {
		s.idx++
	}
	return st
}

func newTrackerServer(t *testing.T, script *statusServer) (*Tracker, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/generate" && r.Method == http.MethodPost:
			fmt.Fprintln(w, `{"request_id":"req-1","status":"queued"}`)
		case r.URL.Path == "/api/generate/req-1/status":
			json.NewEncoder(w).Encode(script.next())
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return NewTracker(swarmhq.NewClient(ts.URL)), ts
}

func TestLifecycleHappyPath(t *testing.T) {
	script := &statusServer{statuses: []domain.GenerationStatus{
		{RequestID: "req-1", Status: domain.StateQueued},
		{RequestID: "req-1", Status: domain.StateRunning, Progress: &domain.GenerationProgress{CurrentRound: 1, TotalRounds: 3, Phase: "critique"}},
		{RequestID: "req-1", Status: domain.StateComplete, Result: &domain.FinalOutput{DocumentID: "doc-9"}},
	}}
	tr, _ := newTrackerServer(t, script)

	res, err := tr.Start(context.Background(), domain.GenerationRequest{DocumentType: domain.DocumentProposal}, "chan-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if state, ok := tr.State(res.RequestID); !ok || state != domain.StateQueued {
		t.Fatalf("initial state = %v %v, want queued", state, ok)
	}

	for _, want := range []domain.GenerationState{domain.StateQueued, domain.StateRunning, domain.StateComplete} {
		st, err := tr.Poll(context.Background(), res.RequestID)
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if st.Status != want {
			t.Fatalf("state = %s, want %s", st.Status, want)
		}
	}

	// Registry owns the document now; tracker state is discarded.
	tr.Release(res.RequestID)
	if _, ok := tr.State(res.RequestID); ok {
		t.Error("state survived Release")
	}
}

func TestSparsePollingSkipsIntermediateStates(t *testing.T) {
	// The service moved queued -> running -> complete between two polls.
	script := &statusServer{statuses: []domain.GenerationStatus{
		{RequestID: "req-1", Status: domain.StateComplete, Result: &domain.FinalOutput{DocumentID: "doc-1"}},
	}}
	tr, _ := newTrackerServer(t, script)

	if _, err := tr.Start(context.Background(), domain.GenerationRequest{}, ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	st, err := tr.Poll(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if st.Status != domain.StateComplete {
		t.Errorf("state = %s, want complete after sparse poll", st.Status)
	}
}

func TestTerminalStatesAreFrozen(t *testing.T) {
	tr := NewTracker(swarmhq.NewClient("http://unused"))

	for _, terminal := range []domain.GenerationState{domain.StateComplete, domain.StateReview, domain.StateError} {
		t.Run(string(terminal), func(t *testing.T) {
			id := "req-" + string(terminal)
			tr.Observe(&domain.GenerationStatus{RequestID: id, Status: terminal})

			got := tr.Observe(&domain.GenerationStatus{RequestID: id, Status: domain.StateRunning})
			if got != terminal {
				t.Errorf("terminal state moved: %s -> %s", terminal, got)
			}
		})
	}
}

func TestRegressionsAreIgnored(t *testing.T) {
	tr := NewTracker(swarmhq.NewClient("http://unused"))
	tr.Observe(&domain.GenerationStatus{RequestID: "req-1", Status: domain.StateRunning})

	if got := tr.Observe(&domain.GenerationStatus{RequestID: "req-1", Status: domain.StateQueued}); got != domain.StateRunning {
		t.Errorf("state regressed to %s", got)
	}
}

func TestReviewStateCarriesResult(t *testing.T) {
	script := &statusServer{statuses: []domain.GenerationStatus{
		{RequestID: "req-1", Status: domain.StateReview, Result: &domain.FinalOutput{
			DocumentID:          "doc-5",
			RequiresHumanReview: true,
		}},
	}}
	tr, _ := newTrackerServer(t, script)

	if _, err := tr.Start(context.Background(), domain.GenerationRequest{}, ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	st, err := tr.Poll(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if st.Status != domain.StateReview || st.Result == nil || !st.Result.RequiresHumanReview {
		t.Errorf("status = %+v, want review with result requiring human review", st)
	}
}

func TestNormalizeRegeneration(t *testing.T) {
	tests := []struct {
		name string
		in   domain.RegenerationOptions
		want domain.RegenerationOptions
	}{
		{
			name: "both flags asserted: higher rounds wins",
			in:   domain.RegenerationOptions{RetryWithSameConfig: true, RetryWithHigherRounds: true},
			want: domain.RegenerationOptions{RetryWithSameConfig: false, RetryWithHigherRounds: true},
		},
		{
			name: "same config alone is preserved",
			in:   domain.RegenerationOptions{RetryWithSameConfig: true},
			want: domain.RegenerationOptions{RetryWithSameConfig: true},
		},
		{
			name: "new config passes through untouched",
			in: domain.RegenerationOptions{
				RetryWithHigherRounds: true,
				NewConfig:             &domain.SwarmConfig{Rounds: 7},
			},
			want: domain.RegenerationOptions{
				RetryWithHigherRounds: true,
				NewConfig:             &domain.SwarmConfig{Rounds: 7},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeRegeneration(tt.in)
			if got.RetryWithSameConfig != tt.want.RetryWithSameConfig ||
				got.RetryWithHigherRounds != tt.want.RetryWithHigherRounds {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if (got.NewConfig == nil) != (tt.want.NewConfig == nil) {
				t.Errorf("new config presence changed: %+v", got.NewConfig)
			}
		})
	}
}

func TestRegenerateSendsNormalizedOptions(t *testing.T) {
	var gotBody domain.RegenerationOptions
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate/doc-3/regenerate" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode: %v", err)
		}
		fmt.Fprintln(w, `{"request_id":"req-2","status":"queued"}`)
	}))
	defer ts.Close()

	tr := NewTracker(swarmhq.NewClient(ts.URL))
	res, err := tr.Regenerate(context.Background(), "doc-3", domain.RegenerationOptions{
		RetryWithSameConfig:   true,
		RetryWithHigherRounds: true,
	})
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}

	if gotBody.RetryWithSameConfig || !gotBody.RetryWithHigherRounds {
		t.Errorf("wire options = %+v, want higher-rounds only", gotBody)
	}
	if state, ok := tr.State(res.RequestID); !ok || state != domain.StateQueued {
		t.Errorf("regenerated request state = %v %v, want queued", state, ok)
	}
}

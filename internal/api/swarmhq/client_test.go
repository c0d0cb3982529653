package swarmhq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MichaelBlackwell/bidfoundry/internal/domain"
)

func TestStartGeneration(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q, want ambient bearer credential", r.Header.Get("Authorization"))
		}

		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.DocumentType != domain.DocumentProposal {
			t.Errorf("document_type = %q", req.DocumentType)
		}
		if !req.Config.BlueTeam.StrategyArchitect {
			t.Errorf("canonical config not carried: %+v", req.Config.BlueTeam)
		}
		if req.PushChannelID != "chan-42" {
			t.Errorf("push_channel_id = %q", req.PushChannelID)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"request_id":"req-1","status":"queued","estimated_duration_seconds":90}`)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, WithAPIKey("test-key"))
	got, err := c.StartGeneration(context.Background(), &GenerateRequest{
		DocumentType:     domain.DocumentProposal,
		CompanyProfileID: "cp-1",
		Config: domain.SwarmConfig{
			BlueTeam: domain.BlueTeamRoles{StrategyArchitect: true},
		},
		PushChannelID: "chan-42",
	})
	if err != nil {
		t.Fatalf("StartGeneration: %v", err)
	}
	if got.RequestID != "req-1" || got.Status != "queued" || got.EstimatedDurationSeconds != 90 {
		t.Errorf("result = %+v", got)
	}
}

func TestListDocumentsQueryParams(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		want := map[string]string{
			"limit":     "5",
			"offset":    "10",
			"status":    "approved",
			"type":      "proposal",
			"search":    "acme",
			"sortBy":    "confidence",
			"sortOrder": "desc",
		}
		for k, v := range want {
			if q.Get(k) != v {
				t.Errorf("query %s = %q, want %q", k, q.Get(k), v)
			}
		}
		fmt.Fprintln(w, `{"documents":[],"total":0,"has_more":false}`)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	_, err := c.ListDocuments(context.Background(), ListQuery{
		Limit: 5, Offset: 10,
		Status: "approved", Type: "proposal", Search: "acme",
		SortBy: "confidence", SortOrder: "desc",
	})
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
}

func TestGetDocumentAbsentIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintln(w, `{"detail":"not found"}`)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	out, err := c.GetDocument(context.Background(), "doc-999")
	if err != nil {
		t.Fatalf("absent document should not error, got %v", err)
	}
	if out != nil {
		t.Errorf("out = %+v, want nil", out)
	}
}

func TestDeleteDocumentNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintln(w, `{"detail":"document doc-999 not found"}`)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	err := c.DeleteDocument(context.Background(), "doc-999")
	if !domain.IsNotFound(err) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	de, _ := domain.AsError(err)
	if de.Origin != domain.OriginRegistry {
		t.Errorf("origin = %q, want registry", de.Origin)
	}
}

func TestUpdateDocumentStatusPaths(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprintln(w, `{"id":"doc-1","status":"approved"}`)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	if _, err := c.UpdateDocumentStatus(context.Background(), "doc-1", domain.StatusApproved, "lgtm"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if gotPath != "/api/documents/doc-1/approve" {
		t.Errorf("approve path = %q", gotPath)
	}

	if _, err := c.UpdateDocumentStatus(context.Background(), "doc-1", domain.StatusRejected, ""); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if gotPath != "/api/documents/doc-1/reject" {
		t.Errorf("reject path = %q", gotPath)
	}
}

func TestExportDocumentShapes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req exportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if req.Format == "share" {
			fmt.Fprintln(w, `{"url":"https://share.example/abc"}`)
			return
		}
		// "payload" is base64 on the wire
		fmt.Fprintln(w, `{"payload":"cGRmLWJ5dGVz"}`)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)

	payload, shareURL, err := c.ExportDocument(context.Background(), "doc-1", "share")
	if err != nil {
		t.Fatalf("export share: %v", err)
	}
	if shareURL == "" || payload != nil {
		t.Errorf("share format: payload=%v url=%q, want url only", payload, shareURL)
	}

	payload, shareURL, err = c.ExportDocument(context.Background(), "doc-1", "pdf")
	if err != nil {
		t.Fatalf("export pdf: %v", err)
	}
	if shareURL != "" || string(payload) != "pdf-bytes" {
		t.Errorf("pdf format: payload=%q url=%q, want payload only", payload, shareURL)
	}
}

func TestTransportFailureIsNormalized(t *testing.T) {
	c := NewClient("http://127.0.0.1:0") // nothing listens here
	_, err := c.GetSettings(context.Background())
	de, ok := domain.AsError(err)
	if !ok {
		t.Fatalf("err = %T %v, want normalized error", err, err)
	}
	if de.Code != domain.CodeUnknown {
		t.Errorf("code = %q, want %q", de.Code, domain.CodeUnknown)
	}
	if de.Origin != domain.OriginSettings {
		t.Errorf("origin = %q, want settings", de.Origin)
	}
}

package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cmccabe/expertise-engine/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-model", zap.NewNop())
}

func envelope(t *testing.T, payload string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]string{"response": payload})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return b
}

func TestAnalyzeSuccess(t *testing.T) {
	payload := `{"primary_technologies":["Python"],"supporting_libraries":[],"key_patterns_and_concepts":["function definition"],"inferred_skills":["Python programming"],"analysis_summary":"Defines an empty function."}`

	var gotReq generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write(envelope(t, payload))
	})

	got, err := c.Analyze(context.Background(), "def foo(): pass", model.SourceFile)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	want := model.AnalysisResult{
		PrimaryTechnologies:    []string{"Python"},
		SupportingLibraries:    []string{},
		KeyPatternsAndConcepts: []string{"function definition"},
		InferredSkills:         []string{"Python programming"},
		Summary:                "Defines an empty function.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if gotReq.Model != "test-model" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.Stream {
		t.Error("stream should be false")
	}
	if gotReq.Format != "json" {
		t.Errorf("format = %q", gotReq.Format)
	}
}

func TestAnalyzeServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	})

	_, err := c.Analyze(context.Background(), "x", model.SourceFile)
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind != KindBackendUnreachable {
		t.Fatalf("expected BackendUnreachable, got %v", err)
	}
}

func TestAnalyzeConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listening anymore

	c := New(srv.URL, "test-model", zap.NewNop())
	_, err := c.Analyze(context.Background(), "x", model.SourceFile)
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind != KindBackendUnreachable {
		t.Fatalf("expected BackendUnreachable, got %v", err)
	}
}

func TestAnalyzeMalformedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope(t, "not json"))
	})

	_, err := c.Analyze(context.Background(), "x", model.SourceFile)
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind != KindMalformedPayload {
		t.Fatalf("expected MalformedPayload, got %v", err)
	}
}

func TestAnalyzeMalformedEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>backend exploded</html>"))
	})

	_, err := c.Analyze(context.Background(), "x", model.SourceFile)
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind != KindMalformedPayload {
		t.Fatalf("expected MalformedPayload, got %v", err)
	}
}

func TestAnalyzeEmptyResponseField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"done":true}`))
	})

	_, err := c.Analyze(context.Background(), "x", model.SourceFile)
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind != KindMalformedPayload {
		t.Fatalf("expected MalformedPayload, got %v", err)
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write(envelope(t, "{}"))
	}).WithTimeouts(50*time.Millisecond, 50*time.Millisecond)

	_, err := c.Analyze(context.Background(), "x", model.SourceCommit)
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind != KindTimeout {
		t.Fatalf("expected Timeout, got %v", err)
	}
}

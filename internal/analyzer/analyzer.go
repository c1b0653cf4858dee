// Package analyzer calls the external text-analysis backend (Ollama) and
// validates its structured response.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cmccabe/expertise-engine/internal/model"
)

// ErrorKind classifies analysis failures.
type ErrorKind int

const (
	// KindBackendUnreachable covers transport failures and non-2xx replies.
	KindBackendUnreachable ErrorKind = iota + 1
	// KindTimeout means the bounded wait for the backend expired.
	KindTimeout
	// KindMalformedPayload means the reply was not JSON or not the
	// expected shape at either parse layer.
	KindMalformedPayload
)

func (k ErrorKind) String() string {
	switch k {
	case KindBackendUnreachable:
		return "backend unreachable"
	case KindTimeout:
		return "timeout"
	case KindMalformedPayload:
		return "malformed payload"
	default:
		return "unknown"
	}
}

// Error is an analysis failure with a specific kind. It is always fully
// recovered by the pipeline; it never crashes the host process.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "analysis: " + e.Kind.String()
	}
	return fmt.Sprintf("analysis: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// prompt is the fixed contract sent to the backend. The content is embedded
// verbatim and the backend is instructed to return strict JSON with five
// named fields, empty lists for inapplicable categories.
const prompt = `You are a Principal Software Architect. Your task is to perform a detailed analysis of the following developer-authored content (source code, or a git diff with its commit message). Your goal is to map the developer's expertise.
Your analysis must be highly specific and discriminating. Extract the following information into a structured JSON format.

**JSON OUTPUT STRUCTURE:**
- **primary_technologies**: A list of the main programming languages and major frameworks (e.g., "Python", "Flask", "React").
- **supporting_libraries**: A list of specific libraries or packages being imported and used (e.g., "requests", "pandas", "sqlite3").
- **key_patterns_and_concepts**: A list of specific software design patterns or programming concepts being implemented. Be specific (e.g., "REST API consumption", "Database read operation").
- **inferred_skills**: A list of high-level, resume-worthy skills that this content demonstrates (e.g., "API Integration", "Data Engineering").
- **analysis_summary**: A concise, one-sentence technical summary of the content's function.

**RULES:**
1.  Be precise. Do not list generic concepts.
2.  If a category is not applicable, you MUST return an empty list [].
3.  Base your analysis ONLY on the provided context.

**Analyze the following content:**
---
%s
---`

// Client talks to an Ollama-compatible backend over HTTP.
type Client struct {
	baseURL       string
	model         string
	fileTimeout   time.Duration
	commitTimeout time.Duration
	http          *http.Client
	log           *zap.Logger
}

// generateRequest is the /api/generate body. format:"json" asks the backend
// to guarantee syntactically valid JSON output; that is a best-effort hint,
// parsing below does not trust it.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format"`
}

// generateResponse is the transport envelope. Response holds a string that
// must itself be parsed as JSON.
type generateResponse struct {
	Response string `json:"response"`
}

// New creates a client for the backend at baseURL using the given model.
// File content gets a 2 minute bound, commit content 3 minutes (diffs can
// be large).
func New(baseURL, modelName string, log *zap.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		model:         modelName,
		fileTimeout:   2 * time.Minute,
		commitTimeout: 3 * time.Minute,
		http:          &http.Client{},
		log:           log.Named("analyzer"),
	}
}

// WithTimeouts overrides the per-kind wait bounds.
func (c *Client) WithTimeouts(file, commit time.Duration) *Client {
	c.fileTimeout = file
	c.commitTimeout = commit
	return c
}

// Analyze sends one blob to the backend and returns the validated result.
// All failures come back as *Error; there is no retry here, that policy
// belongs to the pipeline.
func (c *Client) Analyze(ctx context.Context, content string, kind model.SourceKind) (model.AnalysisResult, error) {
	timeout := c.fileTimeout
	if kind == model.SourceCommit {
		timeout = c.commitTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.log.Debug("analyzing content",
		zap.String("kind", string(kind)),
		zap.Int("content_length", len(content)))

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: fmt.Sprintf(prompt, content),
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return model.AnalysisResult{}, &Error{Kind: KindMalformedPayload, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return model.AnalysisResult{}, &Error{Kind: KindBackendUnreachable, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return model.AnalysisResult{}, &Error{Kind: KindTimeout, Err: err}
		}
		return model.AnalysisResult{}, &Error{Kind: KindBackendUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.AnalysisResult{}, &Error{
			Kind: KindBackendUnreachable,
			Err:  fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b))),
		}
	}

	// Layer one: the transport envelope.
	var envelope generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return model.AnalysisResult{}, &Error{Kind: KindMalformedPayload, Err: fmt.Errorf("decode envelope: %w", err)}
	}
	if strings.TrimSpace(envelope.Response) == "" {
		return model.AnalysisResult{}, &Error{Kind: KindMalformedPayload, Err: errors.New("envelope has no response payload")}
	}

	// Layer two: the embedded JSON payload.
	result, err := model.DecodeAnalysis([]byte(envelope.Response))
	if err != nil {
		return model.AnalysisResult{}, &Error{Kind: KindMalformedPayload, Err: err}
	}
	return result, nil
}

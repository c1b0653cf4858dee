// Package normalize turns raw events into analyzable text plus provenance.
package normalize

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cmccabe/expertise-engine/internal/model"
)

// SkipReason says why an event was intentionally not analyzed. Skips are
// not errors: the pipeline logs them and drops the event.
type SkipReason int

const (
	// SkipEmpty means the content trimmed to nothing.
	SkipEmpty SkipReason = iota + 1
	// SkipHiddenFile means the file's base name starts with a dot.
	SkipHiddenFile
)

func (r SkipReason) String() string {
	switch r {
	case SkipEmpty:
		return "empty content"
	case SkipHiddenFile:
		return "hidden file"
	default:
		return "unknown"
	}
}

// SkipError carries a SkipReason through an error return.
type SkipError struct {
	Reason SkipReason
}

func (e *SkipError) Error() string { return "skip: " + e.Reason.String() }

// Skipped reports whether err is a skip and returns its reason.
func Skipped(err error) (SkipReason, bool) {
	var se *SkipError
	if errors.As(err, &se) {
		return se.Reason, true
	}
	return 0, false
}

// commitDelimiter joins the commit message and diff into one blob.
const commitDelimiter = "\n\nCode Diff:\n"

// Normalize converts an event into analyzable content. It returns a
// *SkipError for content that is intentionally not analysis-worthy and a
// plain error for I/O failures (missing or unreadable file).
func Normalize(ev model.Event) (*model.AnalyzableContent, error) {
	switch e := ev.(type) {
	case model.FileChanged:
		return normalizeFile(e)
	case model.CommitStaged:
		return normalizeCommit(e)
	default:
		return nil, fmt.Errorf("unknown event type %T", ev)
	}
}

func normalizeFile(ev model.FileChanged) (*model.AnalyzableContent, error) {
	if strings.HasPrefix(filepath.Base(ev.Path), ".") {
		return nil, &SkipError{Reason: SkipHiddenFile}
	}

	b, err := os.ReadFile(ev.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ev.Path, err)
	}

	// Best-effort text extraction: drop undecodable byte sequences instead
	// of failing. Binary files yield garbled but non-fatal text.
	text := strings.ToValidUTF8(string(b), "")
	if strings.TrimSpace(text) == "" {
		return nil, &SkipError{Reason: SkipEmpty}
	}

	return &model.AnalyzableContent{
		Text:       text,
		SourceKind: model.SourceFile,
		SourceRef:  ev.Path,
	}, nil
}

func normalizeCommit(ev model.CommitStaged) (*model.AnalyzableContent, error) {
	// A commit with no staged changes or no message is not analysis-worthy.
	if strings.TrimSpace(ev.Diff) == "" || strings.TrimSpace(ev.Message) == "" {
		return nil, &SkipError{Reason: SkipEmpty}
	}

	ref := "pre-commit-analysis"
	if ev.RepoName != "" {
		ref = ev.RepoName + "@pre-commit-analysis"
	}

	return &model.AnalyzableContent{
		Text:       "Commit Message:\n" + ev.Message + commitDelimiter + ev.Diff,
		SourceKind: model.SourceCommit,
		SourceRef:  ref,
		ActorID:    ev.Author,
	}, nil
}

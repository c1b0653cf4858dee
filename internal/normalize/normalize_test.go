package normalize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cmccabe/expertise-engine/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestNormalizeFile(t *testing.T) {
	path := writeFile(t, "main.py", "def foo(): pass")

	got, err := Normalize(model.FileChanged{Path: path, DetectedAt: time.Now()})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.Text != "def foo(): pass" {
		t.Errorf("text = %q", got.Text)
	}
	if got.SourceKind != model.SourceFile {
		t.Errorf("source kind = %q", got.SourceKind)
	}
	if got.SourceRef != path {
		t.Errorf("source ref = %q", got.SourceRef)
	}
}

func TestNormalizeFileDropsInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	if err := os.WriteFile(path, []byte{'o', 'k', 0xff, 0xfe, '!'}, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := Normalize(model.FileChanged{Path: path})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.Text != "ok!" {
		t.Errorf("text = %q, want invalid bytes dropped", got.Text)
	}
}

func TestNormalizeFileEmpty(t *testing.T) {
	path := writeFile(t, "empty.txt", "  \n\t ")

	_, err := Normalize(model.FileChanged{Path: path})
	reason, ok := Skipped(err)
	if !ok || reason != SkipEmpty {
		t.Fatalf("expected SkipEmpty, got %v", err)
	}
}

func TestNormalizeFileHidden(t *testing.T) {
	path := writeFile(t, ".env", "SECRET=1")

	_, err := Normalize(model.FileChanged{Path: path})
	reason, ok := Skipped(err)
	if !ok || reason != SkipHiddenFile {
		t.Fatalf("expected SkipHiddenFile, got %v", err)
	}
}

func TestNormalizeFileMissingIsNotSkip(t *testing.T) {
	_, err := Normalize(model.FileChanged{Path: filepath.Join(t.TempDir(), "gone.go")})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, ok := Skipped(err); ok {
		t.Fatalf("missing file surfaced as skip: %v", err)
	}
}

func TestNormalizeCommit(t *testing.T) {
	got, err := Normalize(model.CommitStaged{
		Diff:     "+func main() {}",
		Message:  "add entrypoint",
		Author:   "cal",
		RepoName: "engine",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !strings.HasPrefix(got.Text, "Commit Message:\nadd entrypoint") {
		t.Errorf("text = %q", got.Text)
	}
	if !strings.Contains(got.Text, "Code Diff:\n+func main() {}") {
		t.Errorf("text missing diff: %q", got.Text)
	}
	if got.SourceRef != "engine@pre-commit-analysis" {
		t.Errorf("source ref = %q", got.SourceRef)
	}
	if got.ActorID != "cal" {
		t.Errorf("actor = %q", got.ActorID)
	}
}

func TestNormalizeCommitEmptyParts(t *testing.T) {
	cases := []model.CommitStaged{
		{Diff: "", Message: "msg"},
		{Diff: "+x", Message: "   "},
	}
	for _, c := range cases {
		_, err := Normalize(c)
		reason, ok := Skipped(err)
		if !ok || reason != SkipEmpty {
			t.Errorf("commit %+v: expected SkipEmpty, got %v", c, err)
		}
	}
}

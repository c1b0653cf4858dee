// Package gitmeta reads commit metadata from git plumbing for one-shot
// (commit hook) runs. Everything it returns is treated as an opaque string.
package gitmeta

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrMissingMetadata means the basic git or event metadata could not be
// read; this is the only failure that justifies a non-zero exit.
var ErrMissingMetadata = errors.New("missing source metadata")

// Info holds everything a one-shot run needs from the repository.
type Info struct {
	Diff     string
	Message  string
	UserName string
	RepoName string
}

// StagedInfo gathers the staged diff, the commit message (from the file git
// provides to the hook), the committing user's name, and the repository's
// base directory name.
func StagedInfo(ctx context.Context, messagePath string) (*Info, error) {
	diff, err := gitOutput(ctx, "diff", "--staged")
	if err != nil {
		return nil, fmt.Errorf("%w: staged diff: %v", ErrMissingMetadata, err)
	}

	msg, err := os.ReadFile(messagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: commit message: %v", ErrMissingMetadata, err)
	}

	user, err := gitOutput(ctx, "config", "user.name")
	if err != nil {
		return nil, fmt.Errorf("%w: user.name: %v", ErrMissingMetadata, err)
	}

	toplevel, err := gitOutput(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: repo toplevel: %v", ErrMissingMetadata, err)
	}

	return &Info{
		Diff:     diff,
		Message:  string(msg),
		UserName: strings.TrimSpace(user),
		RepoName: filepath.Base(strings.TrimSpace(toplevel)),
	}, nil
}

func gitOutput(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "git", args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

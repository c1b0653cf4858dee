// Package model defines the core expertise data types.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// SourceKind identifies what produced a unit of analyzable content.
type SourceKind string

// Valid source kinds.
const (
	SourceFile   SourceKind = "file"
	SourceCommit SourceKind = "commit"
)

// Event is a transient unit of observed developer work. It is consumed by
// the normalizer and never persisted.
type Event interface {
	Kind() SourceKind
}

// FileChanged reports a file written under the watched root.
type FileChanged struct {
	Path       string
	DetectedAt time.Time
}

// Kind implements Event.
func (FileChanged) Kind() SourceKind { return SourceFile }

// CommitStaged carries a staged commit's diff and message plus git metadata.
type CommitStaged struct {
	Diff     string
	Message  string
	Author   string
	RepoName string
}

// Kind implements Event.
func (CommitStaged) Kind() SourceKind { return SourceCommit }

// AnalyzableContent is a normalized event: one text blob plus provenance.
// Text is guaranteed non-empty by the normalizer.
type AnalyzableContent struct {
	Text       string
	SourceKind SourceKind
	SourceRef  string
	ActorID    string
}

// AnalysisResult is the canonical shape returned by the analysis backend.
// Every list field is always non-nil and Summary defaults to "".
type AnalysisResult struct {
	PrimaryTechnologies    []string `json:"primary_technologies"`
	SupportingLibraries    []string `json:"supporting_libraries"`
	KeyPatternsAndConcepts []string `json:"key_patterns_and_concepts"`
	InferredSkills         []string `json:"inferred_skills"`
	Summary                string   `json:"analysis_summary"`
}

// rawAnalysis accepts both the canonical five-field payload and the legacy
// three-field payload produced by older analyzers.
type rawAnalysis struct {
	PrimaryTechnologies    []string `json:"primary_technologies"`
	SupportingLibraries    []string `json:"supporting_libraries"`
	KeyPatternsAndConcepts []string `json:"key_patterns_and_concepts"`
	InferredSkills         []string `json:"inferred_skills"`
	AnalysisSummary        string   `json:"analysis_summary"`

	Technologies []string `json:"technologies"`
	CoreConcepts []string `json:"core_concepts"`
	Summary      string   `json:"summary"`
}

// DecodeAnalysis parses an analyzer payload into the canonical shape.
// Legacy fields are mapped (technologies -> primary_technologies,
// core_concepts -> key_patterns_and_concepts, summary -> analysis_summary),
// missing fields default rather than error, and unknown fields are ignored.
func DecodeAnalysis(data []byte) (AnalysisResult, error) {
	var raw rawAnalysis
	if err := json.Unmarshal(data, &raw); err != nil {
		return AnalysisResult{}, fmt.Errorf("decode analysis payload: %w", err)
	}

	out := AnalysisResult{
		PrimaryTechnologies:    raw.PrimaryTechnologies,
		SupportingLibraries:    raw.SupportingLibraries,
		KeyPatternsAndConcepts: raw.KeyPatternsAndConcepts,
		InferredSkills:         raw.InferredSkills,
		Summary:                raw.AnalysisSummary,
	}
	if out.PrimaryTechnologies == nil {
		out.PrimaryTechnologies = raw.Technologies
	}
	if out.KeyPatternsAndConcepts == nil {
		out.KeyPatternsAndConcepts = raw.CoreConcepts
	}
	if out.Summary == "" {
		out.Summary = raw.Summary
	}

	out.normalize()
	return out, nil
}

// normalize replaces nil list fields with empty slices so the result is
// schema-stable regardless of what the backend omitted.
func (a *AnalysisResult) normalize() {
	if a.PrimaryTechnologies == nil {
		a.PrimaryTechnologies = []string{}
	}
	if a.SupportingLibraries == nil {
		a.SupportingLibraries = []string{}
	}
	if a.KeyPatternsAndConcepts == nil {
		a.KeyPatternsAndConcepts = []string{}
	}
	if a.InferredSkills == nil {
		a.InferredSkills = []string{}
	}
}

// ExpertiseRecord is one durable, immutable entry in the expertise log.
// ID is assigned by the store at append time; Timestamp is set at write
// time, not analysis time.
type ExpertiseRecord struct {
	ID         int64          `json:"id"`
	ActorID    string         `json:"actor_id"`
	Timestamp  time.Time      `json:"timestamp"`
	SourceKind SourceKind     `json:"source_kind"`
	SourceRef  string         `json:"source_ref"`
	Analysis   AnalysisResult `json:"analysis"`
}

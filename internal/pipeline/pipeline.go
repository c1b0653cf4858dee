// Package pipeline wires event sources to the normalizer, the analysis
// client, and the expertise log. It owns all retry/skip policy: skips and
// analysis failures are logged and dropped, never fatal.
package pipeline

import (
	"context"
	"errors"
	"os/user"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cmccabe/expertise-engine/internal/analyzer"
	"github.com/cmccabe/expertise-engine/internal/gitmeta"
	"github.com/cmccabe/expertise-engine/internal/model"
	"github.com/cmccabe/expertise-engine/internal/normalize"
)

// Analyzer is the analysis client seen by the pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, content string, kind model.SourceKind) (model.AnalysisResult, error)
}

// Appender is the slice of the store the pipeline writes to.
type Appender interface {
	Append(ctx context.Context, rec model.ExpertiseRecord) (int64, error)
}

// Engine drives events through normalize -> analyze -> append.
type Engine struct {
	analyzer Analyzer
	store    Appender
	workers  int
	log      *zap.Logger

	// actorID resolves the identity credited for file events; overridable
	// in tests.
	actorID func() string
}

// New creates an engine. workers sets the watch-mode pool size; processing
// of each event is fully sequential within a worker.
func New(a Analyzer, s Appender, workers int, log *zap.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		analyzer: a,
		store:    s,
		workers:  workers,
		log:      log.Named("pipeline"),
		actorID:  currentUser,
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

// Watch consumes events from the watcher until ctx is canceled. The watch
// loop never terminates on a per-event failure; the subscription is torn
// down on every exit path.
func (e *Engine) Watch(ctx context.Context, w *Watcher) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Close()

	e.log.Info("watching for file changes", zap.String("root", w.root), zap.Int("workers", e.workers))

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range w.Events() {
				e.Process(ctx, ev)
			}
		}()
	}

	<-ctx.Done()
	// Unblocks the delivery loop, which closes the events channel and
	// drains the workers.
	w.Close()
	wg.Wait()

	e.log.Info("watch stopped")
	return nil
}

// RunCommit processes exactly one staged-commit event. Analysis or store
// failure is logged and swallowed so the triggering commit always proceeds;
// the only errors worth surfacing happen before this is called.
func (e *Engine) RunCommit(ctx context.Context, info *gitmeta.Info) {
	e.Process(ctx, model.CommitStaged{
		Diff:     info.Diff,
		Message:  info.Message,
		Author:   info.UserName,
		RepoName: info.RepoName,
	})
}

// Process runs one event through the full chain. Every outcome is terminal
// for the event: a record is appended exactly once or not at all.
func (e *Engine) Process(ctx context.Context, ev model.Event) {
	log := e.log.With(zap.String("job_id", ulid.Make().String()), zap.String("kind", string(ev.Kind())))

	content, err := normalize.Normalize(ev)
	if err != nil {
		if reason, ok := normalize.Skipped(err); ok {
			log.Info("skipping event", zap.String("reason", reason.String()))
			return
		}
		log.Warn("normalize failed", zap.Error(err))
		return
	}

	log = log.With(zap.String("source", content.SourceRef))
	log.Info("analyzing content", zap.Int("content_length", len(content.Text)))

	result, err := e.analyzer.Analyze(ctx, content.Text, content.SourceKind)
	if err != nil {
		var ae *analyzer.Error
		if errors.As(err, &ae) {
			log.Warn("analysis failed", zap.String("cause", ae.Kind.String()), zap.Error(ae.Err))
		} else {
			log.Warn("analysis failed", zap.Error(err))
		}
		return
	}

	actor := content.ActorID
	if actor == "" {
		actor = e.actorID()
	}

	id, err := e.store.Append(ctx, model.ExpertiseRecord{
		ActorID:    actor,
		SourceKind: content.SourceKind,
		SourceRef:  content.SourceRef,
		Analysis:   result,
	})
	if err != nil {
		// The analysis is lost for this event; the pipeline continues.
		log.Warn("append failed", zap.Error(err))
		return
	}

	log.Info("expertise saved",
		zap.Int64("record_id", id),
		zap.String("actor", actor),
		zap.Strings("technologies", result.PrimaryTechnologies),
		zap.Strings("concepts", result.KeyPatternsAndConcepts),
		zap.String("summary", result.Summary))
}

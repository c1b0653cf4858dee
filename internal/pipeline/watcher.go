package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/cmccabe/expertise-engine/internal/model"
)

// Watcher delivers file-change events for a root, recursively, on a bounded
// channel. fsnotify itself is not recursive, so the watcher registers every
// directory under the root and adds new directories as they appear.
type Watcher struct {
	root   string
	fs     *fsnotify.Watcher
	events chan model.FileChanged
	log    *zap.Logger
}

// NewWatcher creates a watcher for root. buffer bounds the event channel.
func NewWatcher(root string, buffer int, log *zap.Logger) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		root:   root,
		fs:     fsw,
		events: make(chan model.FileChanged, buffer),
		log:    log.Named("watcher"),
	}, nil
}

// Start registers the directory tree and begins delivering events until ctx
// is canceled or Close is called. The events channel is closed when the
// delivery loop exits.
func (w *Watcher) Start(ctx context.Context) error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fs.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("register watch tree: %w", err)
	}

	go w.loop(ctx)
	return nil
}

// Events returns the delivery channel.
func (w *Watcher) Events() <-chan model.FileChanged {
	return w.events
}

// Close tears down the underlying watch subscription.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		// Gone already (editor temp file); nothing to analyze.
		return
	}

	// Directory-change events are skipped; new directories join the watch.
	if info.IsDir() {
		if ev.Op&fsnotify.Create != 0 {
			if err := w.fs.Add(ev.Name); err != nil {
				w.log.Warn("watch new directory", zap.String("path", ev.Name), zap.Error(err))
			}
		}
		return
	}

	select {
	case w.events <- model.FileChanged{Path: ev.Name, DetectedAt: time.Now()}:
	case <-ctx.Done():
	}
}

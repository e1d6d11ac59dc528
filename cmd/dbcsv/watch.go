package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"
	"golang.org/x/xerrors"

	"go.nownabe.dev/dbcsv/importer"
)

func newWatchCommand(load configLoader) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Import files as they are written into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if len(cfg.Handlers) == 0 {
				return xerrors.New("no handlers configured")
			}

			dir, err := filepath.Abs(args[0])
			if err != nil {
				return xerrors.Errorf("failed to resolve %s: %w", args[0], err)
			}
			if tmp, err := filepath.Abs(cfg.TmpDir); err == nil && tmp == dir {
				return xerrors.Errorf("cannot watch the staging directory %s", dir)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := newLogger(cfg.Log)

			notifier, err := withSlack(cfg.Slack, &logNotifier{logger: logger})
			if err != nil {
				return err
			}

			imp, cleanup, err := newImporter(ctx, cfg, notifier)
			if err != nil {
				return err
			}
			defer cleanup()

			w := &dirWatcher{
				debounce: debounce,
				limit:    cfg.Concurrency,
				logger:   logger,
				onFile: func(path string) {
					// Failures are reported by logNotifier.
					_ = imp.Handle(ctx, importer.Event{Name: path})
				},
			}

			logger.Info().Str("dir", dir).Msg("watching")

			return w.run(ctx, dir)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period after the last write before a file is imported")

	return cmd
}

// dirWatcher calls onFile once writes to a file in a directory settle, for
// at most limit files at a time.
type dirWatcher struct {
	debounce time.Duration
	limit    int
	logger   zerolog.Logger
	onFile   func(path string)

	sem    *semaphore.Weighted
	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// run blocks until ctx is done and returns nil after pending imports finish.
func (w *dirWatcher) run(ctx context.Context, dir string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return xerrors.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return xerrors.Errorf("failed to watch %s: %w", dir, err)
	}

	w.timers = map[string]*time.Timer{}
	w.sem = semaphore.NewWeighted(int64(max(w.limit, 1)))

	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				w.stop()
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.schedule(ev.Name)

		case err, ok := <-fw.Errors:
			if !ok {
				w.stop()
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *dirWatcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok && t.Stop() {
		w.wg.Done()
	}

	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.timers[path] == t {
			delete(w.timers, path)
		}
		w.mu.Unlock()

		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return
		}

		// Never fails: the context is not cancelable.
		_ = w.sem.Acquire(context.Background(), 1)
		defer w.sem.Release(1)

		w.onFile(path)
	})
	w.timers[path] = t
}

func (w *dirWatcher) stop() {
	w.mu.Lock()
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
}

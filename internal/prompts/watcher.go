package prompts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// overrideID maps a file name like "bond_pricing.md" to its prompt id.
func overrideID(path string) (string, bool) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext != ".md" && ext != ".txt" {
		return "", false
	}
	id := strings.TrimSuffix(base, ext)
	return id, id != ""
}

// LoadOverrides applies every override file in dir to reg and returns the
// ids it applied. Files naming an unknown prompt are skipped.
func LoadOverrides(reg *PromptRegistry, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts dir: %w", err)
	}

	var applied []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := overrideID(e.Name())
		if !ok {
			continue
		}
		if err := applyOverride(reg, id, filepath.Join(dir, e.Name())); err != nil {
			continue
		}
		applied = append(applied, id)
	}
	return applied, nil
}

func applyOverride(reg *PromptRegistry, id, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return reg.SetOverride(id, strings.TrimSpace(string(data)))
}

// OverrideWatcher keeps prompt overrides in sync with a directory: writing
// <id>.md (or <id>.txt) replaces prompt <id>, removing it restores the
// built-in text.
type OverrideWatcher struct {
	dir     string
	reg     *PromptRegistry
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewOverrideWatcher creates a watcher for dir.
func NewOverrideWatcher(dir string, reg *PromptRegistry, logger *zap.Logger) (*OverrideWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &OverrideWatcher{
		dir:     dir,
		reg:     reg,
		logger:  logger,
		watcher: watcher,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start loads the current overrides and begins watching for changes.
func (w *OverrideWatcher) Start() error {
	applied, err := LoadOverrides(w.reg, w.dir)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		w.logger.Info("prompt overrides loaded", zap.String("dir", w.dir), zap.Strings("ids", applied))
	}

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.wg.Add(1)
	go w.eventLoop()
	return nil
}

// Stop stops the watcher.
func (w *OverrideWatcher) Stop() error {
	w.cancel()
	w.wg.Wait()
	return w.watcher.Close()
}

func (w *OverrideWatcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("prompt watcher error", zap.Error(err))
		}
	}
}

func (w *OverrideWatcher) handleEvent(event fsnotify.Event) {
	id, ok := overrideID(event.Name)
	if !ok {
		return
	}

	switch {
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		if err := applyOverride(w.reg, id, event.Name); err != nil {
			w.logger.Warn("prompt override rejected", zap.String("id", id), zap.Error(err))
			return
		}
		w.logger.Info("prompt override applied", zap.String("id", id))

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		// a rename may be an editor's atomic save; only clear if the file is gone
		if _, err := os.Stat(event.Name); errors.Is(err, fs.ErrNotExist) {
			w.reg.ClearOverride(id)
			w.logger.Info("prompt override removed", zap.String("id", id))
		}
	}
}

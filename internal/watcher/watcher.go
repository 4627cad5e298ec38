// Package watcher monitors a directory and feeds newly arriving media
// files into the transcription pipeline.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/subtitle-kit/subkit/internal/logging"
)

// settleDelay gives the writer time to finish before the file is read.
const settleDelay = 2 * time.Second

// mediaExtensions are the containers accepted for transcription.
var mediaExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".avi": true,
	".webm": true, ".m4v": true,
	".mp3": true, ".wav": true, ".m4a": true, ".flac": true,
}

// Handler is invoked once per newly arrived media file.
type Handler func(ctx context.Context, path string) error

// Watcher watches one directory (non-recursive) for new media files.
type Watcher struct {
	dir     string
	handler Handler
	fsw     *fsnotify.Watcher
}

// New creates a watcher on dir.
func New(dir string, handler Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{dir: dir, handler: handler, fsw: fsw}, nil
}

// Run blocks, dispatching the handler for each new media file until
// the context is cancelled. Files are handled one at a time; the
// pipeline behind the handler is dominated by a single external
// process anyway.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	logging.Infof("[watch] monitoring %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			logging.Infof("[watch] stopped")
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !IsMediaFile(event.Name) {
				logging.Debugf("[watch] ignoring %s", event.Name)
				continue
			}

			logging.Infof("[watch] new media file: %s", event.Name)

			// Give the writer time to finish, but stay cancellable
			settle := time.NewTimer(settleDelay)
			select {
			case <-ctx.Done():
				settle.Stop()
				logging.Infof("[watch] stopped")
				return ctx.Err()
			case <-settle.C:
			}

			if err := w.handler(ctx, event.Name); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logging.Errorf("[watch] %s: %v", filepath.Base(event.Name), err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logging.Errorf("[watch] error: %v", err)
		}
	}
}

// IsMediaFile reports whether the path has a supported media extension.
func IsMediaFile(path string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(path))]
}

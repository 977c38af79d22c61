// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/atotto/clipboard"
)

const defaultClipboardPollInterval = time.Second

// ClipboardWatcher polls the system clipboard and hands every new text to
// the sync engine. Text placed on the clipboard by [ClipboardWatcher.Place]
// is not reported back.
type ClipboardWatcher struct {
	engine   ClipAdder
	interval time.Duration

	unsupported bool
	read        func() (string, error)
	write       func(string) error

	mu   sync.Mutex
	last string

	logger *logger.Logger
}

func NewClipboardWatcher(engine ClipAdder, interval time.Duration, log *logger.Logger) *ClipboardWatcher {
	return &ClipboardWatcher{
		engine:      engine,
		interval:    interval,
		unsupported: clipboard.Unsupported,
		read:        clipboard.ReadAll,
		write:       clipboard.WriteAll,
		logger:      log.WithComponent("clipboard_watcher"),
	}
}

// Run polls until ctx is cancelled. Whatever is on the clipboard when Run
// starts is treated as already seen.
func (w *ClipboardWatcher) Run(ctx context.Context) error {
	if w.unsupported {
		w.logger.Warn().Msg("system clipboard is not available, watcher disabled")
		<-ctx.Done()
		return nil
	}

	if text, err := w.read(); err == nil {
		w.Remember(text)
	}

	w.logger.Info().Dur("interval", w.interval).Msg("clipboard watcher started")
	every(ctx, w.interval, defaultClipboardPollInterval, w.poll)
	return nil
}

func (w *ClipboardWatcher) poll(context.Context) {
	text, err := w.read()
	if err != nil {
		w.logger.Debug().Err(err).Msg("error reading clipboard")
		return
	}
	if text == "" {
		return
	}

	w.mu.Lock()
	if text == w.last {
		w.mu.Unlock()
		return
	}
	w.last = text
	w.mu.Unlock()

	if err = w.engine.AddClip(text); err != nil {
		w.logger.Warn().Err(err).Int("length", len(text)).Msg("clipboard text not added")
	}
}

// Remember marks text as seen so the next poll does not add it.
func (w *ClipboardWatcher) Remember(text string) {
	w.mu.Lock()
	w.last = text
	w.mu.Unlock()
}

// Place writes text to the system clipboard without adding it as a new clip.
func (w *ClipboardWatcher) Place(text string) error {
	w.Remember(text)
	return w.write(text)
}

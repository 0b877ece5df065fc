// Package watcher feeds audio dropped into an inbox directory through the
// audio-in flow.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/speech-sentiment/orchestrator"
	"github.com/maastricht-university/speech-sentiment/store"
)

// settleDelay gives writers time to finish the file before it is read.
const settleDelay = 500 * time.Millisecond

type AudioProcessor interface {
	ProcessAudioUpload(ctx context.Context, raw []byte, suggestedName string) (*orchestrator.ArtifactRef, error)
}

type Watcher struct {
	inbox     string
	processor AudioProcessor
	log       logrus.FieldLogger
	watcher   *fsnotify.Watcher
	semaphore chan struct{}
	wg        sync.WaitGroup
	settle    time.Duration
}

func New(inbox string, p AudioProcessor, log logrus.FieldLogger, maxConcurrent int) (*Watcher, error) {
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox %s: %w", inbox, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(inbox); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Watcher{
		inbox:     inbox,
		processor: p,
		log:       log.WithField("inbox", inbox),
		watcher:   fw,
		semaphore: make(chan struct{}, maxConcurrent),
		settle:    settleDelay,
	}, nil
}

// Start blocks until ctx is cancelled, processing every new .wav file. It
// waits for in-flight runs before returning.
func (w *Watcher) Start(ctx context.Context) error {
	w.log.WithField("max_concurrent", cap(w.semaphore)).Info("watching inbox")

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !store.IsPayloadName(event.Name) {
				w.log.WithField("file", event.Name).Debug("ignoring non-audio file")
				continue
			}

			select {
			case w.semaphore <- struct{}{}:
			case <-ctx.Done():
				w.wg.Wait()
				return ctx.Err()
			}
			w.wg.Add(1)
			go func(path string) {
				defer w.wg.Done()
				defer func() { <-w.semaphore }()
				w.handle(ctx, path)
			}(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.WithError(err).Error("watcher error")
		}
	}
}

func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// handle runs one inbox file through the pipeline. The inbox copy is removed
// once the store holds the payload, which is also the case when a provider
// failed after the payload was written.
func (w *Watcher) handle(ctx context.Context, path string) {
	log := w.log.WithField("file", filepath.Base(path))
	if w.settle > 0 {
		select {
		case <-time.After(w.settle):
		case <-ctx.Done():
			return
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).Error("read inbox file")
		return
	}

	ref, err := w.processor.ProcessAudioUpload(ctx, data, filepath.Base(path))
	var kept *orchestrator.PayloadKeptError
	if err != nil {
		log.WithError(err).Error("process inbox file")
		if !errors.As(err, &kept) {
			return
		}
	} else {
		log.WithFields(logrus.Fields{"artifact": ref.ID, "sentiment": ref.Sentiment.Label}).Info("inbox file processed")
	}

	if err := os.Remove(path); err != nil {
		log.WithError(err).Warn("remove inbox file")
	}
}

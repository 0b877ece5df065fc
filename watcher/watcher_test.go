package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maastricht-university/speech-sentiment/clients"
	"github.com/maastricht-university/speech-sentiment/logging"
	"github.com/maastricht-university/speech-sentiment/orchestrator"
)

type call struct {
	name string
	data string
}

type fakeProcessor struct {
	calls chan call
	err   error
}

func (f *fakeProcessor) ProcessAudioUpload(_ context.Context, raw []byte, name string) (*orchestrator.ArtifactRef, error) {
	f.calls <- call{name: name, data: string(raw)}
	if f.err != nil {
		return nil, f.err
	}
	return &orchestrator.ArtifactRef{ID: "20240102-150405.wav", Sentiment: clients.NewSentimentResult(0, 0)}, nil
}

func startWatcher(t *testing.T, p AudioProcessor) string {
	t.Helper()
	inbox := filepath.Join(t.TempDir(), "inbox")
	w, err := New(inbox, p, logging.Discard(), 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w.settle = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Stop()
	})
	return inbox
}

// drop moves a fully written file into dir so the watcher never sees a
// partial write.
func drop(t *testing.T, dir, name, content string) string {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, name)
	if err := os.Rename(tmp, dst); err != nil {
		t.Fatal(err)
	}
	return dst
}

func waitGone(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("%s still present", path)
}

func TestWatcherProcessesNewAudio(t *testing.T) {
	p := &fakeProcessor{calls: make(chan call, 4)}
	inbox := startWatcher(t, p)

	drop(t, inbox, "notes.txt", "ignored")
	path := drop(t, inbox, "meeting.wav", "RIFFdata")

	select {
	case c := <-p.calls:
		if c.name != "meeting.wav" || c.data != "RIFFdata" {
			t.Errorf("processor got %+v", c)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("audio file was not processed")
	}
	waitGone(t, path)

	if _, err := os.Stat(filepath.Join(inbox, "notes.txt")); err != nil {
		t.Errorf("non-audio file touched: %v", err)
	}
}

func TestWatcherKeepsInboxFileWhenNothingStored(t *testing.T) {
	p := &fakeProcessor{calls: make(chan call, 1), err: fmt.Errorf("%w: disk", errors.New("create payload"))}
	inbox := startWatcher(t, p)

	path := drop(t, inbox, "clip.wav", "RIFF")
	select {
	case <-p.calls:
	case <-time.After(5 * time.Second):
		t.Fatal("audio file was not processed")
	}

	time.Sleep(100 * time.Millisecond)
	if _, err := os.Stat(path); err != nil {
		t.Errorf("inbox file removed although no payload was stored: %v", err)
	}
}

func TestWatcherRemovesInboxFileWhenPayloadKept(t *testing.T) {
	kept := &orchestrator.PayloadKeptError{ID: "20240102-150405.wav", Err: clients.ErrTranscriptionFailure}
	p := &fakeProcessor{calls: make(chan call, 1), err: kept}
	inbox := startWatcher(t, p)

	path := drop(t, inbox, "clip.wav", "RIFF")
	select {
	case <-p.calls:
	case <-time.After(5 * time.Second):
		t.Fatal("audio file was not processed")
	}
	waitGone(t, path)
}

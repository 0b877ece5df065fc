package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maastricht-university/speech-sentiment/store"
)

func writeConfig(t *testing.T, storeDir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "app:\n  log_level: error\nstore:\n  dir: " + storeDir + "\nopenai:\n  api_key: sk-secret\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestListAndShow(t *testing.T) {
	dir := t.TempDir()
	st, err := store.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.WritePayload("20240101-010101.wav", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := st.WriteResultText("20240101-010101.wav", "Text: hello\n\nSentiment: NEUTRAL\n"); err != nil {
		t.Fatal(err)
	}
	if err := st.WritePayload("20240102-020202.wav", []byte("b")); err != nil {
		t.Fatal(err)
	}
	conf := writeConfig(t, dir)

	out, err := run(t, "--config", conf, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := "20240102-020202.wav\t(no result)\n20240101-010101.wav\n"
	if out != want {
		t.Errorf("list output = %q, want %q", out, want)
	}

	out, err = run(t, "--config", conf, "show", "20240101-010101.wav")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if out != "Text: hello\n\nSentiment: NEUTRAL\n" {
		t.Errorf("show output = %q", out)
	}

	if _, err := run(t, "--config", conf, "show", "20240102-020202.wav"); err == nil {
		t.Error("show of an artifact without result should fail")
	}
}

func TestConfigShowMasksKeys(t *testing.T) {
	conf := writeConfig(t, t.TempDir())

	out, err := run(t, "--config", conf, "config")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "sk-secret") {
		t.Error("config output leaks the api key")
	}
	if !strings.Contains(out, "store:") {
		t.Errorf("config output = %q", out)
	}
}

func TestMissingConfigFile(t *testing.T) {
	if _, err := run(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "list"); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestWatchRejectsStoreAsInbox(t *testing.T) {
	dir := t.TempDir()
	conf := writeConfig(t, dir)

	for _, inbox := range []string{dir, filepath.Join(dir, "incoming")} {
		_, err := run(t, "--config", conf, "watch", "--inbox", inbox)
		if err == nil || !strings.Contains(err.Error(), "outside store.dir") {
			t.Errorf("watch --inbox %s error = %v, want inbox rejected", inbox, err)
		}
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("store dir touched: %v", entries)
	}
}

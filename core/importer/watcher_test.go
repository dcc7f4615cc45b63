package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSplitImportName(t *testing.T) {
	cases := []struct {
		name       string
		wantTitle  string
		wantArtist string
	}{
		{"DJ Test - Summer Vibes", "Summer Vibes", "DJ Test"},
		{"Summer Vibes", "Summer Vibes", "Unknown Artist"},
		{"A - B - C", "B - C", "A"},
		{" - leading separator", " - leading separator", "Unknown Artist"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			title, artist := splitImportName(tc.name)
			if title != tc.wantTitle || artist != tc.wantArtist {
				t.Errorf("splitImportName(%q) = %q/%q, want %q/%q",
					tc.name, title, artist, tc.wantTitle, tc.wantArtist)
			}
		})
	}
}

func TestIngestMarksEmptyFileFailed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "silence.mp3")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	imp := &Importer{dir: dir, poll: time.Millisecond, done: make(chan struct{})}
	defer close(imp.done)

	finished := make(chan struct{})
	go func() {
		imp.ingestWhenStable(path)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("ingest still polling an empty file")
	}

	if _, err := os.Stat(path + ".failed"); err != nil {
		t.Errorf("empty file not renamed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("original file still present, stat err = %v", err)
	}
}

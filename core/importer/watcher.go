package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mixvault/core/upload"
	"mixvault/logger"

	"github.com/fsnotify/fsnotify"
)

// Importer watches a local drop directory and ingests audio files placed
// there through the regular upload pipeline, attributed to a configured user.
// Imported files are removed from the directory on success and renamed with a
// .failed suffix otherwise, so a bad file is not retried forever.
type Importer struct {
	svc     *upload.Service
	dir     string
	userID  int64
	poll    time.Duration
	watcher *fsnotify.Watcher
	done    chan struct{}
}

var contentTypeByExt = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".aac":  "audio/aac",
	".m4a":  "audio/mp4",
}

// New creates an Importer for the given directory.
func New(svc *upload.Service, dir string, userID int64) *Importer {
	return &Importer{svc: svc, dir: dir, userID: userID, poll: 2 * time.Second, done: make(chan struct{})}
}

// Start begins watching the drop directory. Files already present at startup
// are ingested as well.
func (i *Importer) Start() error {
	if err := os.MkdirAll(i.dir, 0755); err != nil {
		return fmt.Errorf("failed to create import directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(i.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", i.dir, err)
	}
	i.watcher = watcher

	go i.loop()
	go i.sweepExisting()

	logger.Info("import watcher started", logger.String("dir", i.dir), logger.Int64("userId", i.userID))
	return nil
}

// Stop shuts the watcher down.
func (i *Importer) Stop() {
	close(i.done)
	if i.watcher != nil {
		i.watcher.Close()
	}
}

func (i *Importer) loop() {
	for {
		select {
		case <-i.done:
			return
		case event, ok := <-i.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			ext := strings.ToLower(filepath.Ext(event.Name))
			if _, audio := contentTypeByExt[ext]; !audio {
				continue
			}
			go i.ingestWhenStable(event.Name)
		case err, ok := <-i.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("import watcher error", logger.ErrorField(err))
		}
	}
}

// sweepExisting ingests files that were already in the directory at startup.
func (i *Importer) sweepExisting() {
	entries, err := os.ReadDir(i.dir)
	if err != nil {
		logger.Warn("import sweep failed", logger.ErrorField(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, audio := contentTypeByExt[ext]; !audio {
			continue
		}
		go i.ingestWhenStable(filepath.Join(i.dir, entry.Name()))
	}
}

// ingestWhenStable waits until the file size stops changing (the copy has
// finished), then runs the upload pipeline.
func (i *Importer) ingestWhenStable(path string) {
	var lastSize int64 = -1
	for {
		select {
		case <-i.done:
			return
		case <-time.After(i.poll):
		}
		info, err := os.Stat(path)
		if err != nil {
			return // removed or renamed meanwhile
		}
		if info.Size() == lastSize {
			break
		}
		lastSize = info.Size()
	}

	// A stable empty file can never become a mix; park it instead of
	// polling it forever.
	if lastSize == 0 {
		logger.Warn("empty import file", logger.String("path", path))
		i.markFailed(path)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("import read failed", logger.String("path", path), logger.ErrorField(err))
		return
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	title, artist := splitImportName(name)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	mix, err := i.svc.Upload(ctx, upload.Request{
		UserID:           i.userID,
		Title:            title,
		Artist:           artist,
		Audio:            data,
		AudioContentType: contentTypeByExt[strings.ToLower(filepath.Ext(path))],
		IsPublic:         false, // imported mixes start private
	})
	if err != nil {
		logger.Error("import failed", logger.String("path", path), logger.ErrorField(err))
		i.markFailed(path)
		return
	}

	if err := os.Remove(path); err != nil {
		logger.Warn("imported file not removed", logger.String("path", path), logger.ErrorField(err))
	}
	logger.Info("file imported", logger.String("path", path), logger.Int64("mixId", mix.ID))
}

// markFailed renames a file so it is not picked up again.
func (i *Importer) markFailed(path string) {
	if err := os.Rename(path, path+".failed"); err != nil {
		logger.Warn("could not mark failed import", logger.ErrorField(err))
	}
}

// splitImportName interprets "Artist - Title" filenames; anything else
// becomes the title with the artist defaulting to Unknown Artist.
func splitImportName(name string) (title, artist string) {
	if idx := strings.Index(name, " - "); idx > 0 {
		return strings.TrimSpace(name[idx+3:]), strings.TrimSpace(name[:idx])
	}
	return name, "Unknown Artist"
}

package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink publishes a finished snapshot somewhere downstream renderers can read it.
type Sink interface {
	// Name identifies the sink in console output and errors.
	Name() string
	// Publish stores snapshot, replacing any previous snapshot at the same location.
	Publish(ctx context.Context, snapshot AnalyticsSnapshot) error
}

// fileMu serializes snapshot writes so concurrent publishers never interleave temp files.
var fileMu sync.Mutex

// FileSink writes the snapshot as pretty-printed JSON to a local path.
type FileSink struct {
	Path string
}

// NewFileSink returns a sink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path}
}

// Name implements Sink.
func (s *FileSink) Name() string {
	return "file:" + s.Path
}

// Publish implements Sink.
func (s *FileSink) Publish(ctx context.Context, snapshot AnalyticsSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteSnapshotJSON(s.Path, snapshot)
}

// MarshalSnapshot encodes snapshot the same way every sink stores it: two-space indentation and a
// trailing newline.
func MarshalSnapshot(snapshot AnalyticsSnapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteSnapshotJSON writes snapshot to filePath atomically.
// Parent directories are created as needed. The data goes to a temp file that is synced and then
// renamed over filePath, so readers see either the previous snapshot or the new one.
func WriteSnapshotJSON(filePath string, snapshot AnalyticsSnapshot) error {
	data, err := MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	fileMu.Lock()
	defer fileMu.Unlock()

	return writeFileAtomic(filePath, data)
}

// writeFileAtomic performs the temp file + fsync + rename sequence. fileMu must be held.
func writeFileAtomic(filePath string, data []byte) (err error) {
	if dir := filepath.Dir(filePath); dir != "." {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	tmpFile := filePath + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to create temp file %s: %w", tmpFile, err)
	}

	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(tmpFile)
		}
	}()

	if _, err = file.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON to %s: %w", tmpFile, err)
	}

	if err = file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file %s: %w", tmpFile, err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", tmpFile, err)
	}

	if err = os.Rename(tmpFile, filePath); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp file to %s: %w", filePath, err)
	}

	return nil
}

// ReadSnapshot reads a previously published snapshot.
// A missing or empty file yields a zero snapshot and no error.
func ReadSnapshot(filePath string) (AnalyticsSnapshot, error) {
	var result AnalyticsSnapshot

	if !fileExists(filePath) {
		return result, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return result, fmt.Errorf("failed to read JSON file %s: %w", filePath, err)
	}

	if len(data) == 0 {
		return result, nil
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("failed to parse JSON file %s: %w", filePath, err)
	}

	return result, nil
}

package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/grouptree/pkg/types"
)

// readSnapshotFile decodes a JSONL snapshot into its header and group
// records. The header line is optional. Blank and malformed lines are
// skipped; records are returned as written, without validation.
func readSnapshotFile(path string) (*SnapshotHeader, []types.Group, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var (
		header *SnapshotHeader
		groups []types.Group
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec snapshotLine
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.SnapshotID != "" {
			h := rec.SnapshotHeader
			header = &h
			continue
		}
		groups = append(groups, rec.Group)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return header, groups, nil
}

// writeSnapshotFile writes the header line and one line per group, using
// the temp-file, fsync, rename pattern so readers never see a partial file.
func writeSnapshotFile(path string, header SnapshotHeader, groups []types.Group) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".grouptree-*.jsonl.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	if err := enc.Encode(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, g := range groups {
		if err := enc.Encode(g); err != nil {
			return fmt.Errorf("writing group %d: %w", g.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

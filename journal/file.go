package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
)

// saveJSON atomically writes data as indented JSON to path.
// It ensures the parent directory exists, writes to a temp file,
// then renames to the final path.
func saveJSON(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tempPath := path + ".tmp"

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	jsonData = append(jsonData, '\n')

	if err := os.WriteFile(tempPath, jsonData, 0o600); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}

// loadJSON reads JSON from path into dest. A missing file leaves dest
// untouched and returns nil.
func loadJSON(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

// appendLines appends each value as one JSON line.
func appendLines[T any](path string, values ...T) error {
	if len(values) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, v := range values {
		line, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readLines decodes a JSON Lines file, keeping only the last keep entries.
// Malformed lines are counted and skipped.
func readLines[T any](path string, keep int) (values []T, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(line, &v); err != nil {
			skipped++
			continue
		}
		values = append(values, v)
		if len(values) > keep*2 {
			values = append(values[:0:0], values[len(values)-keep:]...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, err
	}
	if len(values) > keep {
		values = values[len(values)-keep:]
	}
	return values, skipped, nil
}

// readIDs returns the id of every well-formed line of a JSON Lines file.
func readIDs(path string) (map[string]bool, error) {
	ids, _, err := readLines[struct {
		ID string `json:"id"`
	}](path, math.MaxInt/4)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, v := range ids {
		set[v.ID] = true
	}
	return set, nil
}

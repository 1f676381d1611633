// Package integration contains the adapters between courtwatch and the
// outside world: the export-file reader, the filesystem watch source, the
// messaging CLI used for delivery, and the text-generation service client.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// dumpTimeout bounds the fallback byte-dump subprocess.
const dumpTimeout = 10 * time.Second

// RecordReader loads a health-export JSON document from disk.
type RecordReader interface {
	// ReadDocument parses the file at path into a generic document. When the
	// direct read fails (sandbox permission policy on the sync directory,
	// partial file mid-write), it retries once through an external byte-dump
	// utility before giving up. The second return value reports whether the
	// fallback was used.
	ReadDocument(path string) (doc map[string]any, usedFallback bool, err error)
}

type fileRecordReader struct {
	// dumpCommand is the utility invoked against the path on fallback,
	// typically "cat".
	dumpCommand string
}

// NewRecordReader creates a RecordReader with the given fallback dump
// command. An empty command defaults to "cat".
func NewRecordReader(dumpCommand string) RecordReader {
	if dumpCommand == "" {
		dumpCommand = "cat"
	}
	return &fileRecordReader{dumpCommand: dumpCommand}
}

func (r *fileRecordReader) ReadDocument(path string) (map[string]any, bool, error) {
	doc, directErr := readAndParse(path)
	if directErr == nil {
		return doc, false, nil
	}

	doc, dumpErr := r.readViaDump(path)
	if dumpErr == nil {
		return doc, true, nil
	}
	return nil, true, fmt.Errorf("reading %s: direct: %v; dump fallback: %w", path, directErr, dumpErr)
}

func readAndParse(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return doc, nil
}

// readViaDump shells out to the dump command and parses its captured stdout.
// The subprocess is bounded so a hung read cannot stall the watch loop.
func (r *fileRecordReader) readViaDump(path string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dumpTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, r.dumpCommand, path).Output()
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", r.dumpCommand, err)
	}
	if strings.TrimSpace(string(out)) == "" {
		return nil, fmt.Errorf("%s produced no output", r.dumpCommand)
	}
	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("parsing dump output: %w", err)
	}
	return doc, nil
}

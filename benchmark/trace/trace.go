// Package trace loads and saves recorded benchmark workloads.
//
// A trace is a JSONL file with one request per line:
//
//	{"key":"group:12","op":"group"}
//	{"key":"user:GABC...:groups","op":"user"}
//
// Files ending in .gz or .zst are transparently compressed.
package trace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/soma-enyi/soroban-ajo/benchmark/simulation"
	"github.com/soma-enyi/soroban-ajo/internal/codec"
)

// Load reads a workload trace from path. Blank lines are skipped.
func Load(path string) ([]simulation.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}
	defer f.Close()

	r, err := codec.ByExtension(path).Reader(f)
	if err != nil {
		return nil, fmt.Errorf("decompressing trace: %w", err)
	}
	defer r.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var requests []simulation.Request
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var req simulation.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("parsing trace line %d: %w", line, err)
		}
		if req.Key == "" {
			return nil, fmt.Errorf("trace line %d: missing key", line)
		}
		requests = append(requests, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}

	return requests, nil
}

// Save writes a workload trace to path. The compression codec is chosen
// by the file extension.
func Save(path string, requests []simulation.Request) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace: %w", err)
	}

	w, err := codec.ByExtension(path).Writer(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("compressing trace: %w", err)
	}

	enc := json.NewEncoder(w)
	for _, req := range requests {
		if err := enc.Encode(req); err != nil {
			w.Close()
			f.Close()
			return fmt.Errorf("writing trace: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("flushing trace: %w", err)
	}
	return f.Close()
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
)

const pageBreak = "\f"

// loadDocuments reads batch inputs from disk. JSON files carry pre-partitioned
// documents (one object or an array); CSV files are kept whole for direct
// mapping; any other file is text with pages separated by form feeds.
func loadDocuments(paths []string) ([]blocks.Document, error) {
	var docs []blocks.Document
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		name := filepath.Base(path)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			parsed, err := decodeDocuments(raw)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
			docs = append(docs, parsed...)
		case ".csv":
			docs = append(docs, blocks.Document{Name: name, Kind: "csv", Pages: []blocks.Page{{Number: 1, Text: string(raw)}}})
		default:
			docs = append(docs, blocks.Document{Name: name, Kind: "text", Pages: splitPages(string(raw))})
		}
	}
	return docs, nil
}

func decodeDocuments(raw []byte) ([]blocks.Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var docs []blocks.Document
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	}
	var doc blocks.Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return []blocks.Document{doc}, nil
}

func splitPages(text string) []blocks.Page {
	parts := strings.Split(text, pageBreak)
	pages := make([]blocks.Page, 0, len(parts))
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		pages = append(pages, blocks.Page{Number: i + 1, Text: p})
	}
	return pages
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yildizm/prhistory/internal/history"
)

// FileFetcher serves request history from an exported file with the same
// shape as the API response. Page n yields the first (n+1)*PageSize events.
type FileFetcher struct {
	path string
}

// NewFileFetcher creates a fetcher for a .json, .yaml or .yml export
func NewFileFetcher(path string) (*FileFetcher, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("unsupported history file %s (must be .json, .yaml or .yml)", path)
	}
	return &FileFetcher{path: path}, nil
}

// Path returns the file being served
func (f *FileFetcher) Path() string {
	return f.path
}

// Fetch re-reads the file on every call so edits show up on refresh
func (f *FileFetcher) Fetch(ctx context.Context, reloadIndex int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, history.NewFetchError(reloadIndex, "request cancelled", err)
	}

	events, err := ReadHistoryFile(f.path)
	if err != nil {
		return nil, history.NewFetchError(reloadIndex, "failed to read history file", err)
	}

	n := (reloadIndex + 1) * history.PageSize
	if n > len(events) {
		n = len(events)
	}
	return events[:n], nil
}

// ReadHistoryFile decodes an exported history file
func ReadHistoryFile(path string) ([]string, error) {
	// #nosec G304 - path is chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var resp Response
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &resp)
	default:
		err = yaml.Unmarshal(data, &resp)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return resp.RequestHistory, nil
}

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/yildizm/prhistory/internal/client"
	"github.com/yildizm/prhistory/internal/formatter"
	"github.com/yildizm/prhistory/internal/history"
	"github.com/yildizm/prhistory/internal/render"
)

// runRoot executes the CLI with args and returns stdout and stderr
func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	// keep user and project config out of the test
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand("test", "abc123", "today")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-emoji", "--no-color"}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// portal serves total events, (page+1)*50 at a time
func portal(t *testing.T, total int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("Failed to parse form: %v", err)
		}
		page, err := strconv.Atoi(r.PostForm.Get(client.ReloadIndexParam))
		if err != nil {
			http.Error(w, `{"error": "bad reload index"}`, http.StatusBadRequest)
			return
		}
		n := min((page+1)*history.PageSize, total)
		events := make([]string, n)
		for i := range events {
			events[i] = fmt.Sprintf("event %d", i)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(client.Response{RequestHistory: events})
	}))
	t.Cleanup(server.Close)
	return server
}

func decodeWindow(t *testing.T, out string) formatter.WindowOutput {
	t.Helper()
	var window formatter.WindowOutput
	if err := json.Unmarshal([]byte(out), &window); err != nil {
		t.Fatalf("Output is not a JSON window: %v\n%s", err, out)
	}
	return window
}

func TestShowFirstWindow(t *testing.T) {
	server := portal(t, 120)

	out, _, err := runRoot(t, "show", "--url", server.URL, "-o", "json")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}

	window := decodeWindow(t, out)
	if window.Total != 50 {
		t.Errorf("Expected 50 loaded events, got %d", window.Total)
	}
	if len(window.Events) != history.WindowSize {
		t.Fatalf("Expected %d events, got %d", history.WindowSize, len(window.Events))
	}
	if window.Events[0].Text != "event 0" || window.Events[4].Text != "event 4" {
		t.Errorf("Unexpected window: %+v", window.Events)
	}
	if window.LoadMore {
		t.Error("Expected load more to be hidden on the first window")
	}
}

func TestShowNavigateToTail(t *testing.T) {
	server := portal(t, 120)

	out, _, err := runRoot(t, "show", "--url", server.URL, "-o", "json", "--next", "20")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}

	window := decodeWindow(t, out)
	if window.DisplayIndex != 45 {
		t.Errorf("Expected display index 45, got %d", window.DisplayIndex)
	}
	if !window.LoadMore {
		t.Error("Expected load more at the tail of the list")
	}
}

func TestShowLoadsFurtherPages(t *testing.T) {
	server := portal(t, 120)

	out, _, err := runRoot(t, "show", "--url", server.URL, "-o", "json", "--pages", "1", "--next", "3", "--previous", "1")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}

	window := decodeWindow(t, out)
	if window.Total != 100 {
		t.Errorf("Expected 100 loaded events, got %d", window.Total)
	}
	if window.ReloadIndex != 1 {
		t.Errorf("Expected reload index 1, got %d", window.ReloadIndex)
	}
	if window.DisplayIndex != 10 {
		t.Errorf("Expected display index 10, got %d", window.DisplayIndex)
	}
}

func TestShowStopsWhenHistoryExhausted(t *testing.T) {
	server := portal(t, 60)

	out, _, err := runRoot(t, "show", "--url", server.URL, "-o", "json", "--pages", "5")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}

	window := decodeWindow(t, out)
	if window.Total != 60 {
		t.Errorf("Expected 60 loaded events, got %d", window.Total)
	}
	if window.ReloadIndex != 2 {
		t.Errorf("Expected to stop after the first page that added nothing, got reload index %d", window.ReloadIndex)
	}
}

func TestShowInitialLoadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "request not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	out, _, err := runRoot(t, "show", "--url", server.URL, "-o", "json")
	if err == nil {
		t.Fatal("Expected an error for a failed initial load")
	}
	if !history.IsFetchError(err) {
		t.Errorf("Expected a fetch error, got %v", err)
	}

	window := decodeWindow(t, out)
	if len(window.Events) != 0 {
		t.Errorf("Expected no events, got %d", len(window.Events))
	}
	if !strings.Contains(window.Error, "request not found") {
		t.Errorf("Expected the portal message in the output, got %q", window.Error)
	}
}

func TestShowFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.yaml")
	content := "request_history:\n  - Request opened\n  - Acknowledged\n  - Record released\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write history file: %v", err)
	}

	out, _, err := runRoot(t, "show", "--file", path, "-o", "markdown")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, event := range []string{"Request opened", "Acknowledged", "Record released"} {
		if !strings.Contains(out, event) {
			t.Errorf("Expected %q in output:\n%s", event, out)
		}
	}
}

func TestShowStatsAndTrace(t *testing.T) {
	server := portal(t, 120)

	_, stderr, err := runRoot(t, "show", "--url", server.URL, "--stats", "--trace", "--pages", "1")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(stderr, "fetches: 2 (ok 2, failed 0, cancelled 0)") {
		t.Errorf("Expected fetch statistics on stderr, got:\n%s", stderr)
	}
	if !strings.Contains(stderr, `id="`+render.TableID+`"`) {
		t.Errorf("Expected HTML trace on stderr, got:\n%s", stderr)
	}
}

func TestShowRejectsNegativeCounts(t *testing.T) {
	if _, _, err := runRoot(t, "show", "--next", "-1"); err == nil {
		t.Error("Expected an error for a negative --next")
	}
}

func TestShowRejectsUnknownFormat(t *testing.T) {
	server := portal(t, 10)

	if _, _, err := runRoot(t, "show", "--url", server.URL, "-o", "xml"); err == nil {
		t.Error("Expected an error for an unknown output format")
	}
}

func TestPing(t *testing.T) {
	server := portal(t, 10)

	out, _, err := runRoot(t, "ping", "--url", server.URL)
	if err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if !strings.Contains(out, "reachable") {
		t.Errorf("Expected reachable message, got %q", out)
	}
}

func TestPingNeedsURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte(`{"request_history": []}`), 0o600); err != nil {
		t.Fatalf("Failed to write history file: %v", err)
	}

	if _, _, err := runRoot(t, "ping", "--file", path); err == nil {
		t.Error("Expected ping to refuse a history file")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prhistory.yaml")

	out, _, err := runRoot(t, "config", "init", "--path", path, "--minimal")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("Expected created path in output, got %q", out)
	}

	if _, _, err := runRoot(t, "config", "init", "--path", path); err == nil {
		t.Error("Expected init to refuse overwriting without --force")
	}

	out, _, err = runRoot(t, "--config", path, "config", "validate")
	if err != nil {
		t.Fatalf("config validate failed: %v", err)
	}
	if !strings.Contains(out, "Configuration is valid") {
		t.Errorf("Expected valid message, got %q", out)
	}
	if !strings.Contains(out, "http://localhost:5000/request/api/v1.0/history") {
		t.Errorf("Expected history URL in summary, got %q", out)
	}
}

func TestConfigShowJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prhistory.yaml")
	if err := os.WriteFile(path, []byte("ui:\n  theme: minimal\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	out, _, err := runRoot(t, "--config", path, "config", "show", "--format", "json")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, `"theme": "minimal"`) {
		t.Errorf("Expected merged theme in output, got:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := runRoot(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "prhistory test (abc123) built on today") {
		t.Errorf("Unexpected version output: %q", out)
	}
}

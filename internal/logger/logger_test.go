package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestVerboseGating(t *testing.T) {
	verbose := false
	var buf bytes.Buffer
	l := NewWithCallback("history", func() bool { return verbose })
	l.SetOutput(&buf)

	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected no output when not verbose, got %q", buf.String())
	}

	l.Warn("shown %d", 1)
	if !strings.Contains(buf.String(), "WARN [history] shown 1") {
		t.Errorf("Expected warning line, got %q", buf.String())
	}

	buf.Reset()
	verbose = true
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "DEBUG [history] now visible") {
		t.Errorf("Expected debug line once verbose, got %q", buf.String())
	}
}

func TestFields(t *testing.T) {
	var buf bytes.Buffer
	l := New("", nil)
	l.SetOutput(&buf)

	l.ErrorWithFields("failed to load request history", []Field{Page(2), Error(errors.New("boom"))})

	line := buf.String()
	if !strings.Contains(line, "ERROR [main] failed to load request history [page=2 error=boom]") {
		t.Errorf("Unexpected line: %q", line)
	}
}

func TestWithComponentSharesOutput(t *testing.T) {
	var buf bytes.Buffer
	parent := New("prhistory", nil)
	child := parent.WithComponent("client")
	parent.SetOutput(&buf)

	child.Warn("retrying")
	if !strings.Contains(buf.String(), "WARN [client] retrying") {
		t.Errorf("Expected child to write to the parent's output, got %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("dropped")
	l.ErrorWithFields("dropped", []Field{Count(3)})
}

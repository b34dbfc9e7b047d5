package ui

import "time"

// historyLoadedMsg reports that a fetch has been applied or rejected
type historyLoadedMsg struct {
	op  string
	err error
}

// fileChangedMsg reports a change to the watched history file
type fileChangedMsg struct{}

type tickMsg time.Time

package app

import (
	"time"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/event"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/git"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/thread"
)

// Async messages carry the epoch of the request that issued them.
// Messages from before the last thread switch are stale and dropped.

type threadsLoadedMsg struct {
	Epoch   uint64
	Threads []backend.Thread
	Err     error
}

type itemsLoadedMsg struct {
	Epoch    uint64
	ThreadID string
	Items    []thread.Item
	Refresh  bool // true when triggered by a watch event, merges instead of replacing
	Err      error
}

type backendEventMsg struct {
	Event event.Event
	OK    bool // false when the dispatcher stream closed
}

type gitStatusMsg struct {
	Status  git.Status
	Added   int
	Removed int
	Err     error
}

type gitDiffMsg struct {
	Diff string
	Err  error
}

type promptSentMsg struct {
	Epoch    uint64
	ThreadID string
	Err      error
}

type copiedMsg struct {
	Err error
}

type tickMsg time.Time

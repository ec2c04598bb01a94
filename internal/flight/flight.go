// Package flight implements the process-wide single-flight flags that gate
// the long-running library operations (rescan, analyze, recluster): at most
// one of each runs at a time, and a second caller fails fast rather than
// queuing.
package flight

import (
	"errors"
	"sync/atomic"
)

var (
	ErrRescanInProgress    = errors.New("rescan already in progress")
	ErrAnalysisInProgress  = errors.New("analysis already in progress")
	ErrReclusterInProgress = errors.New("recluster already in progress")
)

// Flag is a process-wide boolean gate. Zero value is "not in progress".
type Flag struct {
	inProgress atomic.Bool
}

// Enter flips the flag on and returns a release function, or returns err if
// the flag was already set.
func (f *Flag) Enter(err error) (release func(), enterErr error) {
	if !f.inProgress.CompareAndSwap(false, true) {
		return func() {}, err
	}

	return func() { f.inProgress.Store(false) }, nil
}

// InProgress reports the current state without mutating it.
func (f *Flag) InProgress() bool {
	return f.inProgress.Load()
}

// Flags bundles the three single-flight gates named in the library command
// surface.
type Flags struct {
	Rescan    Flag
	Analyze   Flag
	Recluster Flag
}

func (fl *Flags) EnterRescan() (func(), error)    { return fl.Rescan.Enter(ErrRescanInProgress) }
func (fl *Flags) EnterAnalyze() (func(), error)   { return fl.Analyze.Enter(ErrAnalysisInProgress) }
func (fl *Flags) EnterRecluster() (func(), error) { return fl.Recluster.Enter(ErrReclusterInProgress) }

// Cancel is a cooperative cancellation flag checked between files / between
// k candidates; cancellation is best-effort (in-flight inference completes).
type Cancel struct {
	requested atomic.Bool
}

func (c *Cancel) Request()          { c.requested.Store(true) }
func (c *Cancel) Requested() bool   { return c.requested.Load() }
func (c *Cancel) Reset()            { c.requested.Store(false) }

package run

import "podfetch/internal/download"

// Report summarizes one podcast's outcome for a run.
type Report struct {
	Podcast     string
	Disabled    bool
	DryRun      bool
	Discovered  int
	New         int
	AlreadyDone int
	Downloaded  int
	Failed      int
	Err         error
	Failures    []download.Failure
	StateErrors []download.Failure
}

// HasFailure reports whether anything about this podcast's run should make
// the process exit non-zero.
func (r Report) HasFailure() bool {
	return r.Err != nil || r.Failed > 0 || len(r.StateErrors) > 0
}

// Totals aggregates reports across podcasts.
type Totals struct {
	Podcasts    int
	Discovered  int
	New         int
	AlreadyDone int
	Downloaded  int
	Failed      int
}

// Total sums the reports, skipping disabled podcasts.
func Total(reports []Report) Totals {
	var t Totals
	for _, r := range reports {
		if r.Disabled {
			continue
		}
		t.Podcasts++
		t.Discovered += r.Discovered
		t.New += r.New
		t.AlreadyDone += r.AlreadyDone
		t.Downloaded += r.Downloaded
		t.Failed += r.Failed
	}
	return t
}

// AnyFailure reports whether any podcast failed.
func AnyFailure(reports []Report) bool {
	for _, r := range reports {
		if r.HasFailure() {
			return true
		}
	}
	return false
}

package booking

import "sort"

// Stage accumulates the candidates accepted earlier in a batch
// request so that later candidates in the same batch see them as
// booked intervals.  Batches are processed strictly in request
// order and committed all-or-nothing by the caller; a Stage is
// per-request state and is simply dropped on rejection.
type Stage struct {
	byTable map[uint64][]Interval
}

// NewStage returns an empty staging area.
func NewStage() *Stage {
	return &Stage{byTable: make(map[uint64][]Interval)}
}

// Add records an accepted candidate on the given table.  Staged
// intervals carry ID 0 because they have no persisted identity yet.
func (s *Stage) Add(tableID uint64, c Candidate) {
	s.byTable[tableID] = append(s.byTable[tableID], Interval{From: c.From, Until: c.Until})
}

// View merges the persisted intervals of a table with the staged
// ones and returns them sorted ascending by From.  The sort is
// stable, so persisted intervals keep their place ahead of staged
// ones that share the same start.
func (s *Stage) View(tableID uint64, existing []Interval) []Interval {
	staged := s.byTable[tableID]
	if len(staged) == 0 {
		return existing
	}
	merged := make([]Interval, 0, len(existing)+len(staged))
	merged = append(merged, existing...)
	merged = append(merged, staged...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].From.Before(merged[j].From)
	})
	return merged
}

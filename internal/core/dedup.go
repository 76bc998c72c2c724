package core

import "github.com/jmylchreest/onscreen/internal/model"

// FindMergeCandidate returns the index of the first message in active that
// incoming should merge into, or -1.
//
// A message that has been on screen longer than maxDisplayTime no longer
// accepts merges, so a message re-triggered every frame still fades out
// eventually: the repeat starts a fresh entry with its own clock instead.
func FindMergeCandidate(incoming model.Message, active []model.Message, maxDisplayTime float64) int {
	for i, m := range active {
		if !m.IsSameMessage(incoming) {
			continue
		}
		if m.Timing().TotalDisplayedTime > maxDisplayTime {
			continue
		}
		return i
	}
	return -1
}

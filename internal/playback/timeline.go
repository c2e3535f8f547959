package playback

import (
	"sort"
	"time"

	"github.com/asanalab/flowbuilder/internal/models"
)

// Interval is one flattened slot of a sequence: a half-open window
// [Start, End) during which a single pose is held.
type Interval struct {
	Index   int           `json:"index"`
	Start   time.Duration `json:"start_ns"`
	End     time.Duration `json:"end_ns"`
	Section string        `json:"section"`
	Label   string        `json:"label"`
	Cue     string        `json:"cue,omitempty"`
	Side    string        `json:"side,omitempty"`
	Round   int           `json:"round,omitempty"` // 1-based inside groups, 0 elsewhere
}

// Timeline is the flat, gapless expansion of a sequence. Intervals are
// contiguous and ordered; Total is the End of the last one.
type Timeline struct {
	Intervals []Interval    `json:"intervals"`
	Total     time.Duration `json:"total_ns"`
}

// Flatten expands a sequence's nested sections, groups, and rounds into
// a flat timeline, applying per-round substitutions. Entries with a
// non-positive duration are dropped.
func Flatten(seq *models.Sequence) Timeline {
	var tl Timeline
	cursor := time.Duration(0)

	appendPose := func(section string, pi models.PoseInstance, round int) {
		if pi.DurationSec <= 0 {
			return
		}
		d := time.Duration(pi.DurationSec) * time.Second
		tl.Intervals = append(tl.Intervals, Interval{
			Index:   len(tl.Intervals),
			Start:   cursor,
			End:     cursor + d,
			Section: section,
			Label:   pi.Label,
			Cue:     pi.Cue,
			Side:    pi.Side,
			Round:   round,
		})
		cursor += d
	}

	for _, sec := range seq.Sections {
		for _, e := range sec.Entries {
			switch e.Kind {
			case models.EntryPose:
				if e.Pose != nil {
					appendPose(sec.Name, *e.Pose, 0)
				}
			case models.EntryGroup:
				if e.Group == nil {
					continue
				}
				subs := make(map[[2]int]models.PoseInstance, len(e.Group.Substitutions))
				for _, sub := range e.Group.Substitutions {
					subs[[2]int{sub.Round, sub.Entry}] = sub.Replace
				}
				for round := 1; round <= e.Group.Rounds; round++ {
					for i, pi := range e.Group.Entries {
						if repl, ok := subs[[2]int{round, i}]; ok {
							pi = repl
						}
						appendPose(sec.Name, pi, round)
					}
				}
			}
		}
	}

	tl.Total = cursor
	return tl
}

// At returns the interval active at the given elapsed time. The second
// return is false before the first interval's start only when the
// timeline is empty, and after the end of the last interval.
func (tl Timeline) At(elapsed time.Duration) (Interval, bool) {
	if len(tl.Intervals) == 0 || elapsed >= tl.Total {
		return Interval{}, false
	}
	if elapsed < 0 {
		elapsed = 0
	}
	i := sort.Search(len(tl.Intervals), func(i int) bool {
		return tl.Intervals[i].End > elapsed
	})
	return tl.Intervals[i], true
}

// Progress returns the overall fraction of the timeline completed and
// the fraction of the active interval completed, both in [0, 1].
func (tl Timeline) Progress(elapsed time.Duration) (overall, within float64) {
	if tl.Total <= 0 {
		return 0, 0
	}
	if elapsed <= 0 {
		elapsed = 0
	}
	if elapsed >= tl.Total {
		return 1, 1
	}
	overall = float64(elapsed) / float64(tl.Total)
	iv, ok := tl.At(elapsed)
	if ok && iv.End > iv.Start {
		within = float64(elapsed-iv.Start) / float64(iv.End-iv.Start)
	}
	return overall, within
}

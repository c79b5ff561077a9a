package detect

// MinCandidateSpan is the longest padded candidate still treated as noise.
// Candidates at or below it are dropped before any merge decision. The span
// is measured before a negative start is clamped to 0, so a kept interval
// that opens the source may be shorter than this.
const MinCandidateSpan = 2.0

// Extract scans silence labels for speech onsets and offsets and returns the
// padded speaking intervals, merging each new candidate into the previous one
// when they overlap or sit closer than cfg.SilenceMinLen.
//
// Speech still running in the final window has no closing transition and is
// not emitted.
func Extract(labels []bool, cfg Config, duration float64) []Interval {
	var (
		intervals     []Interval
		speakingStart float64
	)
	for i := 1; i < len(labels); i++ {
		at := float64(i) * cfg.WindowSize
		switch {
		case labels[i-1] && !labels[i]:
			speakingStart = at
		case !labels[i-1] && labels[i]:
			candidate := pad(speakingStart, at, cfg.EaseIn, duration)
			if candidate.Span() <= MinCandidateSpan {
				continue
			}
			candidate.Start = max(candidate.Start, 0)
			if n := len(intervals); n > 0 {
				prev := &intervals[n-1]
				if prev.End > candidate.Start || candidate.Start-prev.End < cfg.SilenceMinLen {
					prev.End = candidate.End
					continue
				}
			}
			intervals = append(intervals, candidate)
		}
	}
	return intervals
}

func pad(speakingStart, speakingEnd, easeIn, duration float64) Interval {
	start := 0.0
	if speakingStart != 0 {
		start = speakingStart - easeIn
	}
	end := duration
	if speakingEnd <= duration-easeIn {
		end = speakingEnd + easeIn
	}
	return Interval{Start: start, End: end}
}

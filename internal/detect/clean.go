package detect

// Clean coalesces every run of intervals whose consecutive gaps are shorter
// than silenceMinLen into one interval spanning the run. The input is not
// modified.
func Clean(intervals []Interval, silenceMinLen float64) []Interval {
	cleaned := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if n := len(cleaned); n > 0 && iv.Start-cleaned[n-1].End < silenceMinLen {
			cleaned[n-1].End = max(cleaned[n-1].End, iv.End)
			continue
		}
		cleaned = append(cleaned, iv)
	}
	return cleaned
}

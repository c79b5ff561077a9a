package detect

// Plan numbers the cleaned intervals for rendering. With trimEdgesOnly a
// non-empty list collapses to one segment from the first start to the last
// end, keeping internal pauses.
func Plan(cleaned []Interval, trimEdgesOnly bool) []Segment {
	if len(cleaned) == 0 {
		return nil
	}
	if trimEdgesOnly {
		return []Segment{{
			Index:    1,
			Interval: Interval{Start: cleaned[0].Start, End: cleaned[len(cleaned)-1].End},
		}}
	}
	segments := make([]Segment, len(cleaned))
	for i, iv := range cleaned {
		segments[i] = Segment{Index: i + 1, Interval: iv}
	}
	return segments
}

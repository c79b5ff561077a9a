package detect

// Window is one fixed-width slice of the source timeline.
type Window struct {
	Index  int     `json:"index"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Silent bool    `json:"silent"`
}

// Interval is a half-open span of the source, in seconds, to keep.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Span returns the interval length in seconds.
func (iv Interval) Span() float64 {
	return iv.End - iv.Start
}

// Segment is a planned output: an interval paired with its 1-based ordinal.
type Segment struct {
	Index int `json:"index"`
	Interval
}

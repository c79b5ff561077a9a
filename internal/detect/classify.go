package detect

import "math"

// windowTolerance absorbs float error so exact multiples like 3.0/0.1 keep
// their last window.
const windowTolerance = 1e-9

// Classify reports whether a window with the given peak is silent.
func Classify(peak, threshold float64) bool {
	return peak < threshold
}

// Labels classifies every peak against threshold.
func Labels(peaks []float64, threshold float64) []bool {
	labels := make([]bool, len(peaks))
	for i, peak := range peaks {
		labels[i] = Classify(peak, threshold)
	}
	return labels
}

// WindowCount returns how many whole windows fit in duration. A trailing
// partial window is dropped.
func WindowCount(duration, windowSize float64) int {
	if duration <= 0 || windowSize <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0
	}
	return int(math.Floor(duration/windowSize + windowTolerance))
}

// Windows lays out the contiguous windows covering duration.
func Windows(duration, windowSize float64) []Window {
	n := WindowCount(duration, windowSize)
	windows := make([]Window, n)
	for i := range windows {
		windows[i] = Window{
			Index: i,
			Start: float64(i) * windowSize,
			End:   float64(i+1) * windowSize,
		}
	}
	return windows
}

package detect

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	S = true
	P = false
)

func cfg(windowSize, easeIn, silenceMinLen float64) Config {
	return Config{WindowSize: windowSize, VolumeThreshold: 0.01, EaseIn: easeIn, SilenceMinLen: silenceMinLen}
}

func TestClassify(t *testing.T) {
	assert.True(t, Classify(0.005, 0.01))
	assert.False(t, Classify(0.01, 0.01), "peak equal to threshold is not silent")
	assert.False(t, Classify(0.5, 0.01))
	assert.Equal(t, []bool{S, P, S}, Labels([]float64{0, 0.2, 0.001}, 0.01))
}

func TestWindowsDropPartialTail(t *testing.T) {
	windows := Windows(3.7, 1)
	require.Len(t, windows, 3)
	assert.Equal(t, Window{Index: 2, Start: 2, End: 3}, windows[2])

	assert.Equal(t, 30, WindowCount(3.0, 0.1), "exact multiples keep the last window")
	assert.Zero(t, WindowCount(0.5, 1))
	assert.Zero(t, WindowCount(-1, 1))
}

func TestExtractScenarioA(t *testing.T) {
	labels := []bool{S, S, P, P, S, S}
	got := Extract(labels, cfg(1, 0, 5), 6)
	assert.Empty(t, got, "span of exactly 2s is discarded")
}

func TestExtractScenarioB(t *testing.T) {
	labels := []bool{S, S, P, P, P, P, S, S}
	got := Extract(labels, cfg(1, 0, 5), 8)
	assert.Equal(t, []Interval{{Start: 2, End: 6}}, got)
}

func TestExtractAppliesEaseIn(t *testing.T) {
	labels := []bool{S, S, S, S, S, P, P, P, P, S, S, S, S, S, S}
	got := Extract(labels, cfg(1, 0.5, 0), 15)
	assert.Equal(t, []Interval{{Start: 4.5, End: 9.5}}, got)
}

func TestExtractEaseInClampsToDuration(t *testing.T) {
	labels := []bool{S, S, P, P, P, P, S}
	got := Extract(labels, cfg(1, 2, 0), 7)
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].Start)
	assert.Equal(t, 7.0, got[0].End, "end past duration-easeIn snaps to duration")
}

func TestExtractFiltersOpeningSpeechBeforeClamping(t *testing.T) {
	labels := []bool{S, P, S, S, S, S, S, S, S, S}
	got := Extract(labels, cfg(0.5, 0.9, 0), 5)
	require.Len(t, got, 1, "padded span -0.4..1.9 exceeds 2s")
	assert.Equal(t, 0.0, got[0].Start)
	assert.InDelta(t, 1.9, got[0].End, 1e-9)

	got = Extract([]bool{S, P, S, S, S, S}, cfg(0.5, 0.6, 0), 3)
	assert.Empty(t, got, "padded span -0.1..1.6 stays below 2s")
}

func TestExtractSpeechFromFirstWindowStartsAtZero(t *testing.T) {
	labels := []bool{P, P, P, P, S, S}
	got := Extract(labels, cfg(1, 0.6, 0), 6)
	assert.Equal(t, []Interval{{Start: 0, End: 4.6}}, got)
}

func TestExtractDropsTrailingOpenSpeech(t *testing.T) {
	labels := []bool{S, S, P, P, P, P, P, P}
	got := Extract(labels, cfg(1, 0, 0), 8)
	assert.Empty(t, got, "speech running into the final window has no closing transition")

	labels = []bool{S, P, P, P, P, S, S, S, P, P, P, P}
	got = Extract(labels, cfg(1, 0, 0), 12)
	assert.Equal(t, []Interval{{Start: 1, End: 5}}, got, "only the closed interval survives")
}

func TestExtractMergesCloseCandidates(t *testing.T) {
	labels := []bool{S, P, P, P, P, S, S, P, P, P, P, S, S}
	got := Extract(labels, cfg(1, 0, 5), 13)
	assert.Equal(t, []Interval{{Start: 1, End: 11}}, got)

	got = Extract(labels, cfg(1, 0, 1), 13)
	assert.Equal(t, []Interval{{Start: 1, End: 5}, {Start: 7, End: 11}}, got)
}

func TestExtractMergesOverlapFromPadding(t *testing.T) {
	labels := []bool{S, P, P, P, P, S, P, P, P, P, S, S}
	got := Extract(labels, cfg(1, 1, 0), 12)
	assert.Equal(t, []Interval{{Start: 0, End: 11}}, got)
}

func TestExtractShortCandidateDoesNotTriggerMerge(t *testing.T) {
	// A 1s blip between two far-apart speeches must not bridge them.
	labels := []bool{S, P, P, P, P, S, S, S, S, S, P, S, S, S, S, S, S, S, S, S, P, P, P, P, S, S}
	got := Extract(labels, cfg(1, 0, 6), 26)
	assert.Equal(t, []Interval{{Start: 1, End: 5}, {Start: 20, End: 24}}, got)
}

func TestCleanScenarioC(t *testing.T) {
	got := Clean([]Interval{{10, 15}, {17, 25}}, 5)
	assert.Equal(t, []Interval{{10, 25}}, got)
}

func TestCleanScenarioD(t *testing.T) {
	got := Clean([]Interval{{10, 15}, {25, 30}}, 5)
	assert.Equal(t, []Interval{{10, 15}, {25, 30}}, got)
}

func TestCleanCoalescesRuns(t *testing.T) {
	input := []Interval{{0, 3}, {4, 6}, {7, 9}, {20, 25}, {26, 27}}
	got := Clean(input, 2)
	assert.Equal(t, []Interval{{0, 9}, {20, 27}}, got)
	assert.Equal(t, []Interval{{0, 3}, {4, 6}, {7, 9}, {20, 25}, {26, 27}}, input, "input must not be mutated")
}

func TestCleanEmpty(t *testing.T) {
	assert.Empty(t, Clean(nil, 5))
}

func TestPlanScenarioE(t *testing.T) {
	got := Plan([]Interval{{10, 15}, {25, 30}}, true)
	assert.Equal(t, []Segment{{Index: 1, Interval: Interval{10, 30}}}, got)
}

func TestPlanTrimEdgesEmpty(t *testing.T) {
	assert.Empty(t, Plan(nil, true))
	assert.Empty(t, Plan(nil, false))
}

func TestPlanPassThroughNumbersFromOne(t *testing.T) {
	got := Plan([]Interval{{10, 15}, {25, 30}}, false)
	assert.Equal(t, []Segment{
		{Index: 1, Interval: Interval{10, 15}},
		{Index: 2, Interval: Interval{25, 30}},
	}, got)
}

func TestPipelineProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 500; trial++ {
		n := 2 + rng.IntN(120)
		labels := make([]bool, n)
		silent := rng.IntN(2) == 0
		for i := range labels {
			if rng.IntN(5) == 0 {
				silent = !silent
			}
			labels[i] = silent
		}
		windowSize := []float64{0.25, 0.5, 1, 2}[rng.IntN(4)]
		c := cfg(windowSize, float64(rng.IntN(4))*0.3, float64(rng.IntN(10)))
		duration := float64(n)*windowSize + rng.Float64()*windowSize

		raw := Extract(labels, c, duration)
		for _, iv := range raw {
			require.Greater(t, iv.End, iv.Start, "trial %d: empty or inverted interval %+v", trial, iv)
			require.GreaterOrEqual(t, iv.Start, 0.0)
			require.LessOrEqual(t, iv.End, duration)
			if iv.Start > 0 {
				require.Greater(t, iv.Span(), MinCandidateSpan)
			} else {
				require.Greater(t, iv.End+c.EaseIn, MinCandidateSpan, "trial %d: unpadded opening too short %+v", trial, iv)
			}
		}

		cleaned := Clean(raw, c.SilenceMinLen)
		for i := 1; i < len(cleaned); i++ {
			require.LessOrEqual(t, cleaned[i-1].End, cleaned[i].Start, "trial %d: overlap", trial)
			require.GreaterOrEqual(t, cleaned[i].Start-cleaned[i-1].End, c.SilenceMinLen)
		}
		require.Equal(t, cleaned, Clean(cleaned, c.SilenceMinLen), "trial %d: clean is not idempotent", trial)

		edges := Plan(cleaned, true)
		if len(cleaned) == 0 {
			require.Empty(t, edges)
			continue
		}
		require.Len(t, edges, 1)
		require.Equal(t, cleaned[0].Start, edges[0].Start)
		require.Equal(t, cleaned[len(cleaned)-1].End, edges[0].End)
	}
}

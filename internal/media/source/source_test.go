package source_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quietcut/internal/logging"
	"quietcut/internal/media/ffprobe"
	"quietcut/internal/media/source"
	"quietcut/internal/services"
	"quietcut/internal/testsupport"
)

type fakeProber struct {
	results map[string]ffprobe.Result
	err     error
	calls   []string
}

func (f *fakeProber) Inspect(_ context.Context, path string) (ffprobe.Result, error) {
	f.calls = append(f.calls, path)
	if f.err != nil {
		return ffprobe.Result{}, f.err
	}
	if r, ok := f.results[filepath.Base(path)]; ok {
		return r, nil
	}
	return ffprobe.Result{}, errors.New("unexpected probe of " + path)
}

type fakeTranscoder struct {
	remuxed  []string
	decoded  []string
	mapSpecs []string
	tones    []testsupport.Tone
	t        *testing.T
}

func (f *fakeTranscoder) Remux(_ context.Context, src, dst string) error {
	f.remuxed = append(f.remuxed, src)
	return os.WriteFile(dst, []byte("remuxed"), 0o644)
}

func (f *fakeTranscoder) DecodeWAV(_ context.Context, src, mapSpec string, sampleRate int, dst string) error {
	f.decoded = append(f.decoded, src)
	f.mapSpecs = append(f.mapSpecs, mapSpec)
	testsupport.WriteWAV(f.t, dst, sampleRate, f.tones...)
	return nil
}

func audioStream(index int, duration string) ffprobe.Stream {
	return ffprobe.Stream{Index: index, CodecType: "audio", CodecName: "aac", Channels: 2, Duration: duration}
}

func newOpener(t *testing.T, prober *fakeProber, transcoder *fakeTranscoder, repair bool) *source.Opener {
	t.Helper()
	return source.NewOpener(prober, transcoder, source.Options{
		WorkDir:        t.TempDir(),
		SampleRate:     8000,
		RepairDuration: repair,
	}, logging.NewNop())
}

func TestOpenAudioOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talk.m4a")
	testsupport.WriteFile(t, path, "x")

	prober := &fakeProber{results: map[string]ffprobe.Result{
		"talk.m4a": {
			Streams: []ffprobe.Stream{audioStream(0, "")},
			Format:  ffprobe.Format{Duration: "4.000"},
		},
	}}
	transcoder := &fakeTranscoder{t: t, tones: []testsupport.Tone{{Seconds: 2}, {Seconds: 2, Amplitude: 0.5}}}
	opener := newOpener(t, prober, transcoder, true)

	src, err := opener.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Cleanup() })

	assert.Equal(t, ffprobe.KindAudioOnly, src.Kind)
	assert.Equal(t, 4.0, src.Duration)
	assert.Equal(t, path, src.MediaPath)
	assert.False(t, src.Repaired)
	assert.Empty(t, transcoder.remuxed)

	sampler, err := src.Sampler(context.Background())
	require.NoError(t, err)
	defer sampler.Close()
	assert.Equal(t, []string{"0:0"}, transcoder.mapSpecs)

	peak, err := sampler.Peak(context.Background(), 2, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, peak, 0.001)
}

func TestOpenVideoPicksDefaultAudio(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lecture.mkv")
	testsupport.WriteFile(t, path, "x")

	commentary := audioStream(1, "")
	commentary.Tags = map[string]string{"title": "Commentary"}
	primary := audioStream(2, "")
	primary.Disposition = map[string]int{"default": 1}
	prober := &fakeProber{results: map[string]ffprobe.Result{
		"lecture.mkv": {
			Streams: []ffprobe.Stream{{Index: 0, CodecType: "video"}, commentary, primary},
			Format:  ffprobe.Format{Duration: "10"},
		},
	}}
	transcoder := &fakeTranscoder{t: t, tones: []testsupport.Tone{{Seconds: 1}}}
	opener := newOpener(t, prober, transcoder, false)

	src, err := opener.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Cleanup() })

	assert.Equal(t, ffprobe.KindVideo, src.Kind)
	assert.Equal(t, 2, src.Audio.Index)
	assert.Equal(t, "0:2", src.Audio.MapSpec())
}

func TestOpenRejectsFilesWithoutAudio(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slides.mp4")
	testsupport.WriteFile(t, path, "x")

	prober := &fakeProber{results: map[string]ffprobe.Result{
		"slides.mp4": {
			Streams: []ffprobe.Stream{{Index: 0, CodecType: "video"}},
			Format:  ffprobe.Format{Duration: "30"},
		},
	}}
	opener := newOpener(t, prober, &fakeTranscoder{t: t}, true)

	_, err := opener.Open(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrUndecodable)
	assert.Equal(t, services.OutcomeUndecodable, services.Classify(err))
}

func TestOpenProbeFailureIsUndecodable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	testsupport.WriteFile(t, path, "not media")

	opener := newOpener(t, &fakeProber{err: errors.New("Invalid data found")}, &fakeTranscoder{t: t}, true)

	_, err := opener.Open(context.Background(), path)
	assert.ErrorIs(t, err, services.ErrUndecodable)
}

func TestOpenMissingFile(t *testing.T) {
	opener := newOpener(t, &fakeProber{}, &fakeTranscoder{t: t}, true)

	_, err := opener.Open(context.Background(), filepath.Join(t.TempDir(), "gone.mp3"))
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestOpenRepairsMissingDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recording.webm")
	testsupport.WriteFile(t, path, "x")

	prober := &fakeProber{results: map[string]ffprobe.Result{
		"recording.webm": {Streams: []ffprobe.Stream{audioStream(0, "")}},
		"remux.webm": {
			Streams: []ffprobe.Stream{audioStream(0, "")},
			Format:  ffprobe.Format{Duration: "12.5"},
		},
	}}
	transcoder := &fakeTranscoder{t: t, tones: []testsupport.Tone{{Seconds: 1}}}
	opener := newOpener(t, prober, transcoder, true)

	src, err := opener.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Cleanup() })

	assert.True(t, src.Repaired)
	assert.Equal(t, 12.5, src.Duration)
	assert.Equal(t, filepath.Join(src.WorkDir(), "remux.webm"), src.MediaPath)
	assert.Equal(t, []string{path}, transcoder.remuxed)

	sampler, err := src.Sampler(context.Background())
	require.NoError(t, err)
	defer sampler.Close()
	assert.Equal(t, []string{src.MediaPath}, transcoder.decoded)
}

func TestOpenStreamDurationFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.ogg")
	testsupport.WriteFile(t, path, "x")

	prober := &fakeProber{results: map[string]ffprobe.Result{
		"clip.ogg": {Streams: []ffprobe.Stream{audioStream(0, "7.25")}},
	}}
	transcoder := &fakeTranscoder{t: t}
	opener := newOpener(t, prober, transcoder, true)

	src, err := opener.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Cleanup() })

	assert.Equal(t, 7.25, src.Duration)
	assert.Empty(t, transcoder.remuxed)
}

func TestOpenDurationUnavailable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.mkv")
	testsupport.WriteFile(t, path, "x")

	noDuration := ffprobe.Result{Streams: []ffprobe.Stream{audioStream(0, "N/A")}}

	t.Run("repair disabled", func(t *testing.T) {
		prober := &fakeProber{results: map[string]ffprobe.Result{"live.mkv": noDuration}}
		opener := newOpener(t, prober, &fakeTranscoder{t: t}, false)

		_, err := opener.Open(context.Background(), path)
		assert.ErrorIs(t, err, services.ErrDurationUnavailable)
		assert.Equal(t, services.OutcomeNotReady, services.Classify(err))
	})

	t.Run("repair does not help", func(t *testing.T) {
		prober := &fakeProber{results: map[string]ffprobe.Result{
			"live.mkv":  noDuration,
			"remux.mkv": noDuration,
		}}
		transcoder := &fakeTranscoder{t: t}
		opener := newOpener(t, prober, transcoder, true)

		_, err := opener.Open(context.Background(), path)
		assert.ErrorIs(t, err, services.ErrDurationUnavailable)
		assert.Len(t, transcoder.remuxed, 1)
	})
}

func TestCleanupRemovesWorkDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mp3")
	testsupport.WriteFile(t, path, "x")

	prober := &fakeProber{results: map[string]ffprobe.Result{
		"a.mp3": {Streams: []ffprobe.Stream{audioStream(0, "")}, Format: ffprobe.Format{Duration: "3"}},
	}}
	opener := newOpener(t, prober, &fakeTranscoder{t: t}, true)

	src, err := opener.Open(context.Background(), path)
	require.NoError(t, err)
	work := src.WorkDir()
	require.DirExists(t, work)

	require.NoError(t, src.Cleanup())
	assert.NoDirExists(t, work)
	assert.NoError(t, src.Cleanup())
}

package audio

import (
	"testing"

	"quietcut/internal/media/ffprobe"
)

func TestSelectPrefersDefaultStream(t *testing.T) {
	streams := []ffprobe.Stream{
		{Index: 0, CodecType: "video"},
		{Index: 1, CodecType: "audio", CodecName: "aac", Channels: 6},
		{Index: 2, CodecType: "audio", CodecName: "opus", Channels: 2, Disposition: map[string]int{"default": 1}},
	}
	sel := Select(streams)
	if sel.Index != 2 {
		t.Fatalf("expected default stream 2, got %d", sel.Index)
	}
	if sel.MapSpec() != "0:2" {
		t.Fatalf("unexpected map spec %q", sel.MapSpec())
	}
}

func TestSelectSkipsCommentary(t *testing.T) {
	streams := []ffprobe.Stream{
		{Index: 0, CodecType: "audio", CodecName: "aac", Channels: 2, Tags: map[string]string{"title": "Director Commentary"}},
		{Index: 1, CodecType: "audio", CodecName: "aac", Channels: 1, Tags: map[string]string{"language": "eng"}},
	}
	sel := Select(streams)
	if sel.Index != 1 {
		t.Fatalf("expected non-commentary stream, got %d", sel.Index)
	}
	if sel.Label() != "aac 1ch eng" {
		t.Fatalf("unexpected label %q", sel.Label())
	}
}

func TestSelectTiesGoToEarliest(t *testing.T) {
	streams := []ffprobe.Stream{
		{Index: 3, CodecType: "audio", Channels: 2},
		{Index: 4, CodecType: "audio", Channels: 2},
	}
	if sel := Select(streams); sel.Index != 3 {
		t.Fatalf("expected earliest stream, got %d", sel.Index)
	}
}

func TestSelectNoAudio(t *testing.T) {
	sel := Select([]ffprobe.Stream{{Index: 0, CodecType: "video"}})
	if sel.Found() {
		t.Fatal("expected no selection")
	}
	if sel.MapSpec() != "0:a:0" || sel.Label() != "" {
		t.Fatalf("unexpected empty selection rendering: %q %q", sel.MapSpec(), sel.Label())
	}
}

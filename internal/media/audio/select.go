package audio

import (
	"fmt"
	"sort"
	"strings"

	"quietcut/internal/media/ffprobe"
)

// Selection identifies the chosen stream. Index is the absolute stream index
// suitable for ffmpeg "-map 0:<index>"; it is -1 when no audio exists.
type Selection struct {
	Stream ffprobe.Stream
	Index  int
}

// Found reports whether an audio stream was selected.
func (s Selection) Found() bool {
	return s.Index >= 0
}

// MapSpec returns the ffmpeg stream specifier for the selection.
func (s Selection) MapSpec() string {
	if !s.Found() {
		return "0:a:0"
	}
	return fmt.Sprintf("0:%d", s.Index)
}

// Label summarizes the selection for logs.
func (s Selection) Label() string {
	if !s.Found() {
		return ""
	}
	parts := []string{strings.TrimSpace(s.Stream.CodecName)}
	if s.Stream.Channels > 0 {
		parts = append(parts, fmt.Sprintf("%dch", s.Stream.Channels))
	}
	if lang := strings.TrimSpace(s.Stream.Tags["language"]); lang != "" {
		parts = append(parts, lang)
	}
	return strings.Join(parts, " ")
}

// Select returns the preferred audio stream.
func Select(streams []ffprobe.Stream) Selection {
	var candidates []ffprobe.Stream
	for _, stream := range streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			candidates = append(candidates, stream)
		}
	}
	if len(candidates) == 0 {
		return Selection{Index: -1}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return score(candidates[i]) > score(candidates[j])
	})
	return Selection{Stream: candidates[0], Index: candidates[0].Index}
}

func score(s ffprobe.Stream) int {
	total := s.Channels
	if s.Disposition["default"] == 1 {
		total += 100
	}
	if s.Disposition["comment"] == 1 || s.Disposition["visual_impaired"] == 1 {
		total -= 200
	}
	title := strings.ToLower(s.Tags["title"])
	if strings.Contains(title, "commentary") {
		total -= 200
	}
	return total
}

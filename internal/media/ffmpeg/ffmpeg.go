// Package ffmpeg runs the ffmpeg invocations quietcut needs: decoding a
// source to mono WAV for analysis, remuxing containers that lack duration
// metadata, and rendering MP3 clips.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"quietcut/internal/services"
)

// NormalizeFilter is the filter chain applied when normalization is enabled.
const NormalizeFilter = "highpass=f=60,dynaudnorm=f=150:g=15:p=0.7:m=10:s=0"

// Runner executes ffmpeg.
type Runner struct {
	Binary string
}

// ClipOptions describes one rendered clip.
type ClipOptions struct {
	Start     float64
	End       float64
	MapSpec   string
	Normalize bool
	Quality   int
}

// DecodeWAV writes the selected audio stream of src as 16-bit mono WAV.
func (r Runner) DecodeWAV(ctx context.Context, src, mapSpec string, sampleRate int, dst string) error {
	return r.run(ctx, "decode", DecodeArgs(src, mapSpec, sampleRate, dst))
}

// Remux copies every stream of src into dst without re-encoding, which makes
// ffmpeg write the duration header some recorders omit.
func (r Runner) Remux(ctx context.Context, src, dst string) error {
	return r.run(ctx, "remux", RemuxArgs(src, dst))
}

// RenderClip encodes [max(Start,0), End] of src to an MP3 at dst.
func (r Runner) RenderClip(ctx context.Context, src, dst string, opts ClipOptions) error {
	if opts.End <= max(opts.Start, 0) {
		return services.Wrap(services.ErrValidation, "render", "clip",
			fmt.Sprintf("empty clip range %.3f-%.3f", opts.Start, opts.End), nil)
	}
	return r.run(ctx, "render", ClipArgs(src, dst, opts))
}

// DecodeArgs builds the analysis decode command line.
func DecodeArgs(src, mapSpec string, sampleRate int, dst string) []string {
	if mapSpec == "" {
		mapSpec = "0:a:0"
	}
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-i", src,
		"-map", mapSpec,
		"-vn", "-sn", "-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		dst,
	}
}

// RemuxArgs builds the stream-copy command line.
func RemuxArgs(src, dst string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-i", src,
		"-map", "0",
		"-c", "copy",
		dst,
	}
}

// ClipArgs builds the clip render command line.
func ClipArgs(src, dst string, opts ClipOptions) []string {
	start := max(opts.Start, 0)
	mapSpec := opts.MapSpec
	if mapSpec == "" {
		mapSpec = "0:a:0"
	}
	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin", "-y",
		"-ss", seconds(start),
		"-i", src,
		"-t", seconds(opts.End - start),
		"-map", mapSpec,
		"-vn", "-sn", "-dn",
		"-c:a", "libmp3lame",
		"-q:a", strconv.Itoa(opts.Quality),
	}
	if opts.Normalize {
		args = append(args, "-af", NormalizeFilter)
	}
	return append(args, "-f", "mp3", dst)
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func (r Runner) run(ctx context.Context, op string, args []string) error {
	binary := strings.TrimSpace(r.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg %s: %w", op, ctxErr)
		}
		return services.Wrap(services.ErrExternalTool, "ffmpeg", op, strings.TrimSpace(stderr.String()), err)
	}
	return nil
}

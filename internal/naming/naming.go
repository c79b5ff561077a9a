// Package naming turns planned segments into output file paths.
//
// Templates accept {filename}, {index}, {start}, and {end}. Clips are always
// MP3: a literal extension written into the template is replaced, and a
// template without any placeholder gets "_take_{index}" appended so several
// clips cannot share one name.
package naming

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"quietcut/internal/detect"
	"quietcut/internal/textutil"
)

// Extension is the forced output extension.
const Extension = ".mp3"

const takeSuffix = "_take_{index}"

var (
	placeholderPattern = regexp.MustCompile(`\{([a-z]+)\}`)
	known              = map[string]struct{}{"filename": {}, "index": {}, "start": {}, "end": {}}
)

// Config describes where clips go and how they are named.
type Config struct {
	// Template names clips when a source yields several segments.
	Template string
	// EdgesTemplate names the single clip produced in trim-edges mode.
	EdgesTemplate string
	// OutputDir overrides the per-source directory when set.
	OutputDir string
	// Subdir is created next to the source when OutputDir is empty.
	Subdir string
}

// Output is one clip to render.
type Output struct {
	detect.Segment
	Name string `json:"name"`
	Path string `json:"path"`
}

// Validate rejects templates with unknown placeholders.
func (c Config) Validate() error {
	for _, tmpl := range []string{c.Template, c.EdgesTemplate} {
		if err := ValidateTemplate(tmpl); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTemplate rejects empty templates and unknown placeholders.
func ValidateTemplate(tmpl string) error {
	if strings.TrimSpace(tmpl) == "" {
		return fmt.Errorf("name template is empty")
	}
	for _, match := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		if _, ok := known[match[1]]; !ok {
			return fmt.Errorf("name template %q: unknown placeholder {%s}", tmpl, match[1])
		}
	}
	return nil
}

// HasPlaceholders reports whether tmpl uses any recognized placeholder.
func HasPlaceholders(tmpl string) bool {
	for _, match := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		if _, ok := known[match[1]]; ok {
			return true
		}
	}
	return false
}

// Dir returns the directory clips of source are written to.
func (c Config) Dir(source string) string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	subdir := c.Subdir
	if subdir == "" {
		subdir = "processed"
	}
	return filepath.Join(filepath.Dir(source), subdir)
}

// Resolve names every segment of source. In trim-edges mode exactly one
// segment is expected and EdgesTemplate is used without any ordinal suffix.
func (c Config) Resolve(source string, segments []detect.Segment, trimEdgesOnly bool) ([]Output, error) {
	if len(segments) == 0 {
		return nil, nil
	}
	if trimEdgesOnly && len(segments) != 1 {
		return nil, fmt.Errorf("trim-edges plan has %d segments, want 1", len(segments))
	}

	tmpl := c.Template
	if trimEdgesOnly {
		tmpl = c.EdgesTemplate
	}
	if err := ValidateTemplate(tmpl); err != nil {
		return nil, err
	}
	tmpl = stripLiteralExtension(tmpl)
	if !trimEdgesOnly && !HasPlaceholders(tmpl) {
		tmpl += takeSuffix
	}

	base := BaseName(source)
	dir := c.Dir(source)
	outputs := make([]Output, 0, len(segments))
	used := make(map[string]struct{}, len(segments))
	for _, seg := range segments {
		name := Render(tmpl, base, seg)
		if _, dup := used[name]; dup {
			name = Render(tmpl+takeSuffix, base, seg)
		}
		used[name] = struct{}{}
		file := name + Extension
		outputs = append(outputs, Output{Segment: seg, Name: file, Path: filepath.Join(dir, file)})
	}
	return outputs, nil
}

// Render substitutes placeholders for one segment. Start and end are
// truncated to whole seconds.
func Render(tmpl, filename string, seg detect.Segment) string {
	rendered := placeholderPattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		switch token {
		case "{filename}":
			return filename
		case "{index}":
			return strconv.Itoa(seg.Index)
		case "{start}":
			return strconv.Itoa(int(math.Trunc(seg.Start)))
		case "{end}":
			return strconv.Itoa(int(math.Trunc(seg.End)))
		default:
			return token
		}
	})
	rendered = textutil.SanitizeFileName(rendered)
	if rendered == "" {
		return "clip_" + strconv.Itoa(seg.Index)
	}
	return rendered
}

// BaseName returns the sanitized source name without its extension.
func BaseName(source string) string {
	name := filepath.Base(source)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return textutil.SanitizeFileName(name)
}

func stripLiteralExtension(tmpl string) string {
	ext := filepath.Ext(tmpl)
	if ext == "" || strings.ContainsAny(ext, "{}") {
		return tmpl
	}
	return strings.TrimSuffix(tmpl, ext)
}

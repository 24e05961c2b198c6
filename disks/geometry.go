// Package disks holds named image-size presets for vsfsutil's "format"
// subcommand, so a caller can request "small" or "large" instead of
// computing a byte count by hand.
package disks

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// Preset names a ready-made image size, so a caller doesn't have to compute
// one by hand to try the file system out.
type Preset struct {
	Slug          string `csv:"slug"`
	Name          string `csv:"name"`
	ImageSizeByte int64  `csv:"image_size_bytes"`
	Notes         string `csv:"notes"`
}

//go:embed presets.csv
var presetsRawCSV string

var presets map[string]Preset

// GetPreset looks up a named image-size preset.
func GetPreset(slug string) (Preset, error) {
	preset, ok := presets[slug]
	if ok {
		return preset, nil
	}
	return Preset{}, fmt.Errorf("no predefined image size preset with slug %q", slug)
}

// PresetSlugs lists every known preset slug, for a CLI's help text.
func PresetSlugs() []string {
	slugs := make([]string, 0, len(presets))
	for slug := range presets {
		slugs = append(slugs, slug)
	}
	return slugs
}

func init() {
	presets = make(map[string]Preset)
	reader := strings.NewReader(presetsRawCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row Preset) error {
		if _, exists := presets[row.Slug]; exists {
			return fmt.Errorf("duplicate preset slug %q", row.Slug)
		}
		presets[row.Slug] = row
		return nil
	})
	if err != nil && err != io.EOF {
		panic(err)
	}
}

// Package report renders the statistics of a cleaning run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/cocoprune/internal/coco"
	"github.com/Iron-Ham/cocoprune/internal/util"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// maxNameWidth bounds category names in the verbose listing.
const maxNameWidth = 60

// Options controls rendering.
type Options struct {
	Format  string
	Verbose bool
}

// Write renders stats to w in the requested format.
func Write(w io.Writer, stats *coco.Stats, opts Options) error {
	switch opts.Format {
	case "", FormatText:
		return writeText(w, stats, opts.Verbose)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(newSummary(stats))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newSummary(stats)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q", opts.Format)
	}
}

// summary is the machine-readable form of coco.Stats.
type summary struct {
	CategoriesRemovedCount   int      `json:"categories_removed_count" yaml:"categories_removed_count"`
	CategoriesRemoved        []record `json:"categories_removed" yaml:"categories_removed"`
	AnnotationsRemovedCount  int      `json:"annotations_removed_count" yaml:"annotations_removed_count"`
	OriginalCategoriesCount  int      `json:"original_categories_count" yaml:"original_categories_count"`
	OriginalAnnotationsCount int      `json:"original_annotations_count" yaml:"original_annotations_count"`
	FinalCategoriesCount     int      `json:"final_categories_count" yaml:"final_categories_count"`
	FinalAnnotationsCount    int      `json:"final_annotations_count" yaml:"final_annotations_count"`
	OutputFile               string   `json:"output_file" yaml:"output_file"`
	DryRun                   bool     `json:"dry_run" yaml:"dry_run"`
}

func newSummary(stats *coco.Stats) summary {
	removed := make([]record, len(stats.CategoriesRemoved))
	for i, cat := range stats.CategoriesRemoved {
		removed[i] = record(cat.Raw)
	}
	return summary{
		CategoriesRemovedCount:   stats.CategoriesRemovedCount,
		CategoriesRemoved:        removed,
		AnnotationsRemovedCount:  stats.AnnotationsRemovedCount,
		OriginalCategoriesCount:  stats.OriginalCategoriesCount,
		OriginalAnnotationsCount: stats.OriginalAnnotationsCount,
		FinalCategoriesCount:     stats.FinalCategoriesCount,
		FinalAnnotationsCount:    stats.FinalAnnotationsCount,
		OutputFile:               stats.OutputFile,
		DryRun:                   stats.DryRun,
	}
}

// record is a category exactly as it appeared in the source document.
type record json.RawMessage

func (r record) MarshalJSON() ([]byte, error) {
	return json.RawMessage(r), nil
}

func (r record) MarshalYAML() (any, error) {
	var v any
	if err := json.Unmarshal(r, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func writeText(w io.Writer, stats *coco.Stats, verbose bool) error {
	r := lipgloss.NewRenderer(w)
	success := r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	heading := r.NewStyle().Bold(true)
	dim := r.NewStyle().Faint(true)

	var sb strings.Builder
	if stats.DryRun {
		sb.WriteString(success.Render("✓ Dry run complete, no file written"))
	} else {
		sb.WriteString(success.Render("✓ Successfully cleaned annotation file"))
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  Categories removed: %d (from %d to %d)\n",
		stats.CategoriesRemovedCount, stats.OriginalCategoriesCount, stats.FinalCategoriesCount)
	fmt.Fprintf(&sb, "  Annotations removed: %d (from %d to %d)\n",
		stats.AnnotationsRemovedCount, stats.OriginalAnnotationsCount, stats.FinalAnnotationsCount)
	fmt.Fprintf(&sb, "  Output file: %s\n", stats.OutputFile)

	if verbose && len(stats.CategoriesRemoved) > 0 {
		sb.WriteString("\n")
		sb.WriteString(heading.Render("Removed categories:"))
		sb.WriteString("\n")
		for _, cat := range stats.CategoriesRemoved {
			super := "none"
			if cat.HasSupercategory {
				super = cat.Supercategory
			}
			name := util.TruncateANSI(util.OrPlaceholder(cat.Name, "(unnamed)"), maxNameWidth)
			fmt.Fprintf(&sb, "  - ID %s: %s %s\n", cat.ID.String(), name, dim.Render(fmt.Sprintf("(supercategory: %s)", super)))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

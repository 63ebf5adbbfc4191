package coco

import (
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/cocoprune/internal/errors"
	"github.com/Iron-Ham/cocoprune/internal/logging"
)

// Options controls a cleaning run.
type Options struct {
	// Output is the destination path. Empty overwrites the source.
	Output string
	// Indent is the number of spaces used when writing to a separate file.
	Indent int
	// PrettyInPlace indents the output even when it overwrites the source.
	PrettyInPlace bool
	// DryRun filters and reports without writing anything.
	DryRun bool
}

// Cleaner runs load, filter and save against a Store.
type Cleaner struct {
	store  *Store
	logger *logging.Logger
}

// NewCleaner creates a Cleaner. A nil logger discards log output.
func NewCleaner(store *Store, logger *logging.Logger) *Cleaner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Cleaner{store: store, logger: logger}
}

// Clean removes the categories in set, and every annotation referencing
// them, from the document at src. Nothing is written unless loading and
// filtering both succeed.
func (c *Cleaner) Clean(src string, set RemovalSet, opts Options) (*Stats, error) {
	log := c.logger.WithFile(src).With("removal_set", set.String())

	exists, err := c.store.Exists(src)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat annotation file %s", src)
	}
	if !exists {
		return nil, errors.NewFileNotFoundError(src)
	}

	doc, err := c.store.Load(src)
	if err != nil {
		log.WithPhase("load").Error("failed to load document", "error", err.Error())
		return nil, err
	}
	log.WithPhase("load").Debug("document loaded",
		"keys", doc.Keys(),
		"categories", len(doc.Categories()),
		"annotations", len(doc.Annotations()))

	filtered, stats := Filter(doc, set)
	log.WithPhase("filter").Info("document filtered",
		"categories_removed", stats.CategoriesRemovedCount,
		"annotations_removed", stats.AnnotationsRemovedCount)
	if stats.CategoriesRemovedCount == 0 && stats.AnnotationsRemovedCount == 0 {
		log.WithPhase("filter").Warn("removal set matched no categories or annotations")
	}

	dst := opts.Output
	if dst == "" {
		dst = src
	}
	stats.OutputFile = dst
	stats.DryRun = opts.DryRun

	if opts.DryRun {
		log.WithPhase("save").Info("dry run, skipping write", "output", dst)
		return stats, nil
	}

	indent := ""
	if !samePath(src, dst) || opts.PrettyInPlace {
		indent = strings.Repeat(" ", max(opts.Indent, 1))
	}

	if err := c.store.Save(filtered, dst, indent); err != nil {
		log.WithPhase("save").Error("failed to write document", "output", dst, "error", err.Error())
		return nil, err
	}
	log.WithPhase("save").Info("document written", "output", dst, "compact", indent == "")

	return stats, nil
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

package coco

import "encoding/json"

// Stats describes the outcome of a cleaning run.
type Stats struct {
	CategoriesRemovedCount   int
	CategoriesRemoved        []Category
	AnnotationsRemovedCount  int
	OriginalCategoriesCount  int
	OriginalAnnotationsCount int
	FinalCategoriesCount     int
	FinalAnnotationsCount    int
	// OutputFile is the resolved destination; empty until a run resolves it.
	OutputFile string
	// DryRun is true when the document was filtered but not written.
	DryRun bool
}

// Filter returns a copy of doc without the categories whose id is in set
// and without the annotations whose category_id is in set. Retained records
// keep their relative order and content. The two passes are independent:
// an annotation is dropped on its own category_id even when no category
// with that id exists.
func Filter(doc *Document, set RemovalSet) (*Document, *Stats) {
	out := &Document{
		keys:        append([]string(nil), doc.keys...),
		fields:      make(map[string]json.RawMessage, len(doc.fields)),
		categories:  make([]Category, 0, len(doc.categories)),
		annotations: make([]Annotation, 0, len(doc.annotations)),
	}
	for k, v := range doc.fields {
		out.fields[k] = v
	}

	stats := &Stats{
		CategoriesRemoved:        []Category{},
		OriginalCategoriesCount:  len(doc.categories),
		OriginalAnnotationsCount: len(doc.annotations),
	}

	for _, cat := range doc.categories {
		if set.Contains(cat.ID) {
			stats.CategoriesRemoved = append(stats.CategoriesRemoved, cat)
			continue
		}
		out.categories = append(out.categories, cat)
	}

	for _, ann := range doc.annotations {
		if set.Contains(ann.CategoryID) {
			stats.AnnotationsRemovedCount++
			continue
		}
		out.annotations = append(out.annotations, ann)
	}

	stats.CategoriesRemovedCount = len(stats.CategoriesRemoved)
	stats.FinalCategoriesCount = len(out.categories)
	stats.FinalAnnotationsCount = len(out.annotations)

	return out, stats
}

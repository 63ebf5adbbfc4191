package coco

import "testing"

// scenarioDoc has categories 0, 1 and 39 and annotations referencing
// 0, 1, 39 and 1 in that order.
const scenarioDoc = `{
  "info": {"description": "scenario", "year": 2024},
  "images": [{"id": 7, "file_name": "a.jpg", "width": 640, "height": 480}],
  "categories": [
    {"id": 0, "name": "a"},
    {"id": 1, "name": "b", "supercategory": "letters"},
    {"id": 39, "name": "c"}
  ],
  "annotations": [
    {"id": 100, "image_id": 7, "category_id": 0, "bbox": [1, 2, 3, 4]},
    {"id": 101, "image_id": 7, "category_id": 1, "bbox": [5, 6, 7, 8], "iscrowd": 0},
    {"id": 102, "image_id": 7, "category_id": 39, "segmentation": [[1, 1, 2, 2, 3, 3]]},
    {"id": 103, "image_id": 7, "category_id": 1, "area": 12.5}
  ],
  "licenses": []
}`

func mustParse(t *testing.T, data string) *Document {
	t.Helper()
	doc, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func categoryIDs(doc *Document) []string {
	ids := make([]string, 0, len(doc.Categories()))
	for _, c := range doc.Categories() {
		ids = append(ids, c.ID.String())
	}
	return ids
}

func annotationCategoryIDs(doc *Document) []string {
	ids := make([]string, 0, len(doc.Annotations()))
	for _, a := range doc.Annotations() {
		ids = append(ids, a.CategoryID.String())
	}
	return ids
}

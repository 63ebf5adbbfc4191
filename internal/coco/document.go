// Package coco loads, filters and saves COCO-format annotation files.
//
// A [Document] keeps every top-level key of the source file in its original
// order and every category and annotation record as the raw JSON it was read
// from, so that [Filter] can drop records without touching anything else.
package coco

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/Iron-Ham/cocoprune/internal/errors"
)

// Top-level keys that every annotation document must carry.
const (
	KeyCategories  = "categories"
	KeyAnnotations = "annotations"
)

// ID is an identifier value exactly as it appeared in the document.
// Only JSON numbers with an integral value can match a removal set; strings,
// booleans, null and fractional numbers never do.
type ID struct {
	text     string
	value    int64
	integral bool
}

func parseID(raw json.RawMessage) ID {
	text := string(bytes.TrimSpace(raw))
	id := ID{text: text}

	num := json.Number(text)
	if v, err := num.Int64(); err == nil {
		id.value, id.integral = v, true
		return id
	}
	if len(text) == 0 || (text[0] != '-' && (text[0] < '0' || text[0] > '9')) {
		return id
	}
	if f, err := num.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		id.value, id.integral = int64(f), true
	}
	return id
}

// Int64 returns the integer value of the identifier and whether it has one.
func (id ID) Int64() (int64, bool) {
	return id.value, id.integral
}

// String returns the identifier as written in the source document.
func (id ID) String() string {
	if s, err := strconv.Unquote(id.text); err == nil {
		return s
	}
	return id.text
}

// Category is a single entry of the "categories" array.
type Category struct {
	ID            ID
	Name          string
	Supercategory string
	// HasSupercategory is false when the key is absent or null.
	HasSupercategory bool
	// Raw is the record as read from the source file.
	Raw json.RawMessage
}

// Annotation is a single entry of the "annotations" array. Only the
// category reference is decoded; everything else travels in Raw.
type Annotation struct {
	CategoryID ID
	Raw        json.RawMessage
}

// Document is a parsed COCO annotation file.
type Document struct {
	keys        []string
	fields      map[string]json.RawMessage
	categories  []Category
	annotations []Annotation
}

// Parse decodes a COCO annotation document. Both required keys are checked
// before any record is decoded.
func Parse(data []byte) (*Document, error) {
	var whole json.RawMessage
	if err := json.Unmarshal(data, &whole); err != nil {
		perr := errors.NewParseError("invalid JSON file", err)
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			perr = perr.WithOffset(syntaxErr.Offset)
		}
		return nil, perr
	}

	keys, fields, err := decodeObject(whole)
	if err != nil {
		return nil, err
	}

	for _, key := range []string{KeyCategories, KeyAnnotations} {
		if _, ok := fields[key]; !ok {
			return nil, errors.NewMissingFieldError(key)
		}
	}

	doc := &Document{keys: keys, fields: fields}

	catRecords, err := decodeArray(KeyCategories, fields[KeyCategories])
	if err != nil {
		return nil, err
	}
	doc.categories = make([]Category, 0, len(catRecords))
	for i, raw := range catRecords {
		cat, err := decodeCategory(i, raw)
		if err != nil {
			return nil, err
		}
		doc.categories = append(doc.categories, cat)
	}

	annRecords, err := decodeArray(KeyAnnotations, fields[KeyAnnotations])
	if err != nil {
		return nil, err
	}
	doc.annotations = make([]Annotation, 0, len(annRecords))
	for i, raw := range annRecords {
		ann, err := decodeAnnotation(i, raw)
		if err != nil {
			return nil, err
		}
		doc.annotations = append(doc.annotations, ann)
	}

	return doc, nil
}

// decodeObject splits a JSON object into its keys, in source order, and raw
// values. A repeated key keeps its first position and its last value.
func decodeObject(data json.RawMessage) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, errors.NewParseError("invalid JSON file", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, errors.NewParseError("annotation file must contain a JSON object", nil)
	}

	var keys []string
	fields := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, errors.NewParseError("invalid JSON file", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, errors.NewParseError(fmt.Sprintf("unexpected token %v", tok), nil)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, errors.NewParseError("invalid JSON file", err)
		}
		if _, seen := fields[key]; !seen {
			keys = append(keys, key)
		}
		fields[key] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, errors.NewParseError("invalid JSON file", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, errors.NewParseError("unexpected data after top-level object", err)
	}

	return keys, fields, nil
}

func decodeArray(key string, raw json.RawMessage) ([]json.RawMessage, error) {
	if firstByte(raw) != '[' {
		return nil, errors.NewParseError(fmt.Sprintf("'%s' must be an array", key), nil)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, errors.NewParseError(fmt.Sprintf("'%s' could not be decoded", key), err)
	}
	return records, nil
}

func decodeCategory(index int, raw json.RawMessage) (Category, error) {
	if firstByte(raw) != '{' {
		return Category{}, errors.NewParseError(fmt.Sprintf("%s[%d] must be an object", KeyCategories, index), nil)
	}

	var fields struct {
		ID            json.RawMessage `json:"id"`
		Name          json.RawMessage `json:"name"`
		Supercategory json.RawMessage `json:"supercategory"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Category{}, errors.NewParseError(fmt.Sprintf("%s[%d] could not be decoded", KeyCategories, index), err)
	}
	if fields.ID == nil {
		return Category{}, errors.NewMissingFieldError(fmt.Sprintf("%s[%d].id", KeyCategories, index))
	}

	cat := Category{
		ID:   parseID(fields.ID),
		Name: displayValue(fields.Name),
		Raw:  raw,
	}
	if fields.Supercategory != nil && string(bytes.TrimSpace(fields.Supercategory)) != "null" {
		cat.Supercategory = displayValue(fields.Supercategory)
		cat.HasSupercategory = true
	}
	return cat, nil
}

func decodeAnnotation(index int, raw json.RawMessage) (Annotation, error) {
	if firstByte(raw) != '{' {
		return Annotation{}, errors.NewParseError(fmt.Sprintf("%s[%d] must be an object", KeyAnnotations, index), nil)
	}

	var fields struct {
		CategoryID json.RawMessage `json:"category_id"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Annotation{}, errors.NewParseError(fmt.Sprintf("%s[%d] could not be decoded", KeyAnnotations, index), err)
	}
	if fields.CategoryID == nil {
		return Annotation{}, errors.NewMissingFieldError(fmt.Sprintf("%s[%d].category_id", KeyAnnotations, index))
	}

	return Annotation{CategoryID: parseID(fields.CategoryID), Raw: raw}, nil
}

// displayValue renders a JSON string unquoted and anything else as written.
func displayValue(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// Keys returns the top-level keys in source order.
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Categories returns the category records in document order.
func (d *Document) Categories() []Category {
	return d.categories
}

// Annotations returns the annotation records in document order.
func (d *Document) Annotations() []Annotation {
	return d.annotations
}

// Encode serializes the document. An empty indent produces compact output
// with no insignificant whitespace; otherwise each level is indented by it.
func (d *Document) Encode(indent string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		quoted, err := quote(key)
		if err != nil {
			return nil, err
		}
		buf.Write(quoted)
		buf.WriteByte(':')

		switch key {
		case KeyCategories:
			writeArray(&buf, len(d.categories), func(i int) []byte { return d.categories[i].Raw })
		case KeyAnnotations:
			writeArray(&buf, len(d.annotations), func(i int) []byte { return d.annotations[i].Raw })
		default:
			buf.Write(d.fields[key])
		}
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	var err error
	if indent == "" {
		err = json.Compact(&out, buf.Bytes())
	} else {
		err = json.Indent(&out, buf.Bytes(), "", indent)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return out.Bytes(), nil
}

func writeArray(buf *bytes.Buffer, n int, record func(int) []byte) {
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(record(i))
	}
	buf.WriteByte(']')
}

func quote(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

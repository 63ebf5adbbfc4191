package coco

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/cocoprune/internal/errors"
	"github.com/Iron-Ham/cocoprune/internal/logging"
)

func newTestCleaner(t *testing.T) (*Cleaner, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/train.json", scenarioDoc)
	return NewCleaner(NewStore(fs, true), nil), fs
}

func TestCleaner_Clean_SeparateOutput(t *testing.T) {
	cleaner, fs := newTestCleaner(t)

	stats, err := cleaner.Clean("/data/train.json", NewRemovalSet(0, 39), Options{Output: "/data/clean.json", Indent: 2})
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if stats.OutputFile != "/data/clean.json" {
		t.Errorf("OutputFile = %q", stats.OutputFile)
	}
	if stats.CategoriesRemovedCount != 2 || stats.AnnotationsRemovedCount != 2 {
		t.Errorf("removed = (%d, %d), want (2, 2)", stats.CategoriesRemovedCount, stats.AnnotationsRemovedCount)
	}

	data, err := afero.ReadFile(fs, "/data/clean.json")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("{\n  \"info\"")) {
		t.Errorf("separate output should be indented, got %.30q", data)
	}

	original, err := afero.ReadFile(fs, "/data/train.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(original) != scenarioDoc {
		t.Error("source file changed when writing to a separate output")
	}

	out := mustParse(t, string(data))
	if len(out.Categories()) != 1 || len(out.Annotations()) != 2 {
		t.Errorf("written document has %d categories, %d annotations", len(out.Categories()), len(out.Annotations()))
	}
}

func TestCleaner_Clean_InPlace(t *testing.T) {
	t.Run("compact by default", func(t *testing.T) {
		cleaner, fs := newTestCleaner(t)

		stats, err := cleaner.Clean("/data/train.json", NewRemovalSet(1), Options{Indent: 2})
		if err != nil {
			t.Fatalf("Clean() error = %v", err)
		}
		if stats.OutputFile != "/data/train.json" {
			t.Errorf("OutputFile = %q", stats.OutputFile)
		}

		data, _ := afero.ReadFile(fs, "/data/train.json")
		if bytes.ContainsAny(data, "\n ") {
			t.Errorf("in-place output should be compact, got %s", data)
		}
		if !json.Valid(data) {
			t.Error("output is not valid JSON")
		}
	})

	t.Run("explicit same path is compact", func(t *testing.T) {
		cleaner, fs := newTestCleaner(t)

		if _, err := cleaner.Clean("/data/train.json", NewRemovalSet(1), Options{Output: "/data/./train.json", Indent: 2}); err != nil {
			t.Fatalf("Clean() error = %v", err)
		}
		data, _ := afero.ReadFile(fs, "/data/train.json")
		if bytes.Contains(data, []byte("\n")) {
			t.Error("output to the source path should be compact")
		}
	})

	t.Run("pretty in place", func(t *testing.T) {
		cleaner, fs := newTestCleaner(t)

		if _, err := cleaner.Clean("/data/train.json", NewRemovalSet(1), Options{Indent: 4, PrettyInPlace: true}); err != nil {
			t.Fatalf("Clean() error = %v", err)
		}
		data, _ := afero.ReadFile(fs, "/data/train.json")
		if !bytes.HasPrefix(data, []byte("{\n    \"info\"")) {
			t.Errorf("expected 4-space indent, got %.30q", data)
		}
	})
}

func TestCleaner_Clean_NoMatches(t *testing.T) {
	cleaner, _ := newTestCleaner(t)

	stats, err := cleaner.Clean("/data/train.json", NewRemovalSet(5), Options{Output: "/data/out.json", Indent: 2})
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if stats.CategoriesRemovedCount != 0 || stats.AnnotationsRemovedCount != 0 {
		t.Errorf("removed = (%d, %d), want (0, 0)", stats.CategoriesRemovedCount, stats.AnnotationsRemovedCount)
	}
	if stats.FinalCategoriesCount != 3 || stats.FinalAnnotationsCount != 4 {
		t.Errorf("final = (%d, %d), want (3, 4)", stats.FinalCategoriesCount, stats.FinalAnnotationsCount)
	}
}

func TestCleaner_Clean_WarnsWhenNothingMatches(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/train.json", scenarioDoc)

	var buf bytes.Buffer
	cleaner := NewCleaner(NewStore(fs, true), logging.NewWriterLogger(&buf, logging.LevelWarn))

	if _, err := cleaner.Clean("/data/train.json", NewRemovalSet(5), Options{Output: "/data/out.json", Indent: 2}); err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	logs := buf.String()
	for _, want := range []string{`"level":"WARN"`, `"msg":"removal set matched no categories or annotations"`, `"removal_set":"5"`} {
		if !strings.Contains(logs, want) {
			t.Errorf("logs missing %s:\n%s", want, logs)
		}
	}
	if strings.Contains(logs, `"msg":"document written"`) {
		t.Errorf("info entries should be filtered at WARN level:\n%s", logs)
	}
}

func TestCleaner_Clean_DryRun(t *testing.T) {
	cleaner, fs := newTestCleaner(t)

	stats, err := cleaner.Clean("/data/train.json", NewRemovalSet(0), Options{Output: "/data/out.json", DryRun: true})
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if !stats.DryRun || stats.CategoriesRemovedCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if exists, _ := afero.Exists(fs, "/data/out.json"); exists {
		t.Error("dry run wrote an output file")
	}
}

func TestCleaner_Clean_Errors(t *testing.T) {
	t.Run("missing source", func(t *testing.T) {
		cleaner, _ := newTestCleaner(t)
		_, err := cleaner.Clean("/data/missing.json", NewRemovalSet(1), Options{})
		if !errors.Is(err, errors.ErrFileNotFound) {
			t.Errorf("Clean() error = %v, want ErrFileNotFound", err)
		}
	})

	t.Run("missing annotations leaves files untouched", func(t *testing.T) {
		cleaner, fs := newTestCleaner(t)
		const partial = `{"categories": [{"id": 1, "name": "x"}]}`
		writeFile(t, fs, "/data/partial.json", partial)

		_, err := cleaner.Clean("/data/partial.json", NewRemovalSet(1), Options{})
		if !errors.Is(err, errors.ErrMissingField) {
			t.Fatalf("Clean() error = %v, want ErrMissingField", err)
		}
		data, _ := afero.ReadFile(fs, "/data/partial.json")
		if string(data) != partial {
			t.Error("source was modified after a failed run")
		}

		_, err = cleaner.Clean("/data/partial.json", NewRemovalSet(1), Options{Output: "/data/partial-out.json"})
		if err == nil {
			t.Fatal("expected error")
		}
		if exists, _ := afero.Exists(fs, "/data/partial-out.json"); exists {
			t.Error("output written after a failed run")
		}
	})
}

func TestCleaner_Clean_Logs(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/train.json", scenarioDoc)

	var buf bytes.Buffer
	cleaner := NewCleaner(NewStore(fs, true), logging.NewWriterLogger(&buf, logging.LevelInfo))

	if _, err := cleaner.Clean("/data/train.json", NewRemovalSet(0, 39), Options{Output: "/data/out.json", Indent: 2}); err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	logs := buf.String()
	for _, want := range []string{`"phase":"filter"`, `"removal_set":"0,39"`, `"phase":"save"`, `"file":"/data/train.json"`} {
		if !strings.Contains(logs, want) {
			t.Errorf("logs missing %s:\n%s", want, logs)
		}
	}
}

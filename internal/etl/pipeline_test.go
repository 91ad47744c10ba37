package etl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/safedialog/safedialog/internal/dictionary"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportCSV(t *testing.T) {
	store := dictionary.NewMemoryStore(zap.NewNop())
	p := NewPipeline(store, nil, zap.NewNop())

	path := writeFile(t, "entities.csv",
		"name,placeholder,category\n"+
			"Иван Петров,ПерсонаX,person\n"+
			"ООО Ромашка,Компания 1,company\n"+
			"Иван Петров,ПерсонаY,person\n"+ // duplicate name
			",Пусто,generic\n") // invalid: empty name

	result, err := p.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 2 {
		t.Errorf("imported = %d, want 2", result.Imported)
	}
	if result.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", result.Duplicates)
	}
	if result.Invalid != 1 {
		t.Errorf("invalid = %d, want 1", result.Invalid)
	}

	entities, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entities) != 2 {
		t.Fatalf("stored entities = %d, want 2", len(entities))
	}
}

func TestImportJSON(t *testing.T) {
	store := dictionary.NewMemoryStore(zap.NewNop())
	p := NewPipeline(store, nil, zap.NewNop())

	path := writeFile(t, "entities.json",
		`{"name":"ivan@example.com","placeholder":"Email","category":"email"}`+"\n"+
			`{"name":"+7 999 123-45-67","placeholder":"Телефон","category":"phone"}`+"\n")

	result, err := p.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 2 {
		t.Errorf("imported = %d, want 2", result.Imported)
	}
}

func TestDetectFileFormat(t *testing.T) {
	cases := []struct {
		file string
		want FileFormat
	}{
		{"entities.csv", FormatCSV},
		{"entities.parquet", FormatParquet},
		{"entities.json", FormatJSON},
		{"entities", FormatCSV},
	}
	for _, c := range cases {
		if got := DetectFileFormat(c.file); got != c.want {
			t.Errorf("DetectFileFormat(%q) = %v, want %v", c.file, got, c.want)
		}
	}
}

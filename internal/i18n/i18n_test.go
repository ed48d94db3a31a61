package i18n

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmptyCatalogEchoes(t *testing.T) {
	c := New()
	if got := c.T("View More"); got != "View More" {
		t.Errorf("T = %q", got)
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fr.yaml")
	content := `
"View More": "Voir plus"
"More": "Plus"
"Empty entry": ""
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.T("View More"); got != "Voir plus" {
		t.Errorf("T = %q", got)
	}
	if got := c.T("Empty entry"); got != "Empty entry" {
		t.Errorf("empty translation should fall back, got %q", got)
	}
	if got := c.T("Untranslated"); got != "Untranslated" {
		t.Errorf("missing key should echo, got %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if c, err := Load(""); err != nil || c == nil {
		t.Errorf("Load(\"\") = %v, %v; want identity catalog", c, err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("want error for missing file")
	}
}

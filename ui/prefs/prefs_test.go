package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPrefs_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", prefsFile)

	p := LoadFrom(path)
	if got := p.Int(KeySliceRows, 1); got != 1 {
		t.Errorf("missing int = %d, want fallback 1", got)
	}
	p.SetInt(KeySliceRows, 3)
	p.SetString(KeyLastDir, "/tmp/images")
	p.SetBool(KeyInlineHTML, true)
	p.SetFloat(KeyWindowWidth, 1280.5)
	if err := p.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	q := LoadFrom(path)
	if got := q.Int(KeySliceRows, 1); got != 3 {
		t.Errorf("rows = %d, want 3", got)
	}
	if got := q.String(KeyLastDir); got != "/tmp/images" {
		t.Errorf("last dir = %q", got)
	}
	if !q.Bool(KeyInlineHTML, false) {
		t.Error("inline flag lost")
	}
	if got := q.Float(KeyWindowWidth); got != 1280.5 {
		t.Errorf("width = %v", got)
	}
}

func TestPrefs_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := LoadFrom(path)
	if got := p.String(KeyLastScene); got != "" {
		t.Errorf("corrupt file produced %q", got)
	}
	p.SetString(KeyLastScene, "a.json")
	if err := p.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if got := LoadFrom(path).String(KeyLastScene); got != "a.json" {
		t.Errorf("after rewrite = %q", got)
	}
}

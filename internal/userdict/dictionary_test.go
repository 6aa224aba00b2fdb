package userdict

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAddAndContains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_words.txt")
	d, err := New(path, "")
	if err != nil {
		t.Fatal(err)
	}

	if d.Contains("testword") {
		t.Fatal("should not contain testword before Add")
	}
	if err := d.Add("testword"); err != nil {
		t.Fatal(err)
	}
	if !d.Contains("testword") {
		t.Fatal("should contain testword after Add")
	}
	if !d.Contains("TestWord") {
		t.Fatal("Contains should be case-insensitive")
	}
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_words.txt")
	d, err := New(path, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := d.Add("testword"); err != nil {
		t.Fatal(err)
	}
	if err := d.Remove("testword"); err != nil {
		t.Fatal(err)
	}
	if d.Contains("testword") {
		t.Fatal("should not contain testword after Remove")
	}
}

func TestWordsSorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_words.txt")
	d, err := New(path, "")
	if err != nil {
		t.Fatal(err)
	}

	for _, w := range []string{"zebra", "apple", "monkey"} {
		if err := d.Add(w); err != nil {
			t.Fatal(err)
		}
	}

	got := d.Words()
	want := []string{"apple", "monkey", "zebra"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestEmptyWordIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_words.txt")
	d, err := New(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Add(""); err != nil {
		t.Fatal(err)
	}
	if err := d.Add("   "); err != nil {
		t.Fatal(err)
	}
	if len(d.Words()) != 0 {
		t.Fatalf("expected no words, got %v", d.Words())
	}
}

func TestPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_words.txt")
	d, err := New(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Add("persisted"); err != nil {
		t.Fatal(err)
	}

	d2, err := New(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if !d2.Contains("persisted") {
		t.Fatal("word added in one instance should be on disk for a fresh load")
	}
}

func TestReloadAppWordsPicksUpExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_words.txt")
	d, err := New(path, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("newword\nanotherword\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := d.ReloadAppWords(); err != nil {
		t.Fatal(err)
	}
	if !d.Contains("newword") || !d.Contains("anotherword") {
		t.Fatal("ReloadAppWords should pick up externally written words")
	}
}

func TestSystemDictionaryStripsAffixFlagsAndHeaderLine(t *testing.T) {
	appPath := filepath.Join(t.TempDir(), "user_words.txt")
	sysDir := t.TempDir()
	sysPath := filepath.Join(sysDir, "hunspell_personal")
	content := "*3\nworking/ING\nplayed\n"
	if err := os.WriteFile(sysPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := New(appPath, sysPath)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Contains("working") {
		t.Fatal("expected affix suffix stripped, leaving bare word")
	}
	if !d.Contains("played") {
		t.Fatal("expected plain word present")
	}
	if d.Contains("*3") {
		t.Fatal("header/count line should have been skipped")
	}
}

func TestAllWordsCombinesAppAndSystem(t *testing.T) {
	appPath := filepath.Join(t.TempDir(), "user_words.txt")
	sysPath := filepath.Join(t.TempDir(), "hunspell_personal")
	if err := os.WriteFile(sysPath, []byte("sysword\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := New(appPath, sysPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Add("appword"); err != nil {
		t.Fatal(err)
	}

	all := d.AllWords()
	found := map[string]bool{}
	for _, w := range all {
		found[w] = true
	}
	if !found["appword"] || !found["sysword"] {
		t.Fatalf("AllWords missing entries: %v", all)
	}
}

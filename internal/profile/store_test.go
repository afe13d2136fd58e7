package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), zerolog.Nop())
}

func TestSaveLoadRoundtrip(t *testing.T) {
	store := testStore(t)

	saved := Default()
	path, err := store.Save(saved)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Base(path) == path {
		t.Errorf("Save returned a bare file name: %s", path)
	}

	loaded, err := store.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Objective != saved.Objective {
		t.Errorf("objective roundtrip mismatch: %q vs %q", loaded.Objective, saved.Objective)
	}
	if loaded.Target != saved.Target {
		t.Errorf("target roundtrip mismatch: %+v vs %+v", loaded.Target, saved.Target)
	}
	if len(loaded.Ranking.Categories) != len(saved.Ranking.Categories) {
		t.Errorf("category count mismatch: %d vs %d",
			len(loaded.Ranking.Categories), len(saved.Ranking.Categories))
	}
}

func TestSaveRejectsInvalidProfile(t *testing.T) {
	store := testStore(t)

	p := Default()
	p.Objective = ""
	if _, err := store.Save(p); err == nil {
		t.Fatal("Save should reject an invalid profile")
	}
}

func TestSaveNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, zerolog.Nop())
	store.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	first, err := store.Save(Default())
	if err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	second, err := store.Save(Default())
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if first == second {
		t.Errorf("two saves produced the same path %s", first)
	}
}

func TestListSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, zerolog.Nop())

	if _, err := store.Save(Default()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	junk := filepath.Join(dir, "pipeline_profile_junk.json")
	if err := os.WriteFile(junk, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write junk: %v", err)
	}

	infos, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("List returned %d profiles, want 1", len(infos))
	}
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, zerolog.Nop())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		offset := time.Duration(i) * time.Hour
		store.now = func() time.Time { return base.Add(offset) }
		p := Default()
		p.ProfileID = ""
		p.CreatedAt = time.Time{}
		if _, err := store.Save(p); err != nil {
			t.Fatalf("Save %d failed: %v", i, err)
		}
	}

	infos, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("List returned %d profiles, want 3", len(infos))
	}
	for i := 1; i < len(infos); i++ {
		if infos[i].CreatedAt.After(infos[i-1].CreatedAt) {
			t.Errorf("profiles not newest-first at index %d", i)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := testStore(t)
	if _, err := store.Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("Load of a missing file should fail")
	}
}

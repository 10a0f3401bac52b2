package regmap

import (
	"strings"
	"testing"
)

func TestRepositoryLoadDir(t *testing.T) {
	repo := NewRepository()
	if err := repo.LoadDir(testdata("regmaps")); err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	names := repo.Names()
	if len(names) != 2 || names[0] != "econd" || names[1] != "econt" {
		t.Fatalf("Names() = %v, want [econd econt]", names)
	}

	s, err := repo.Lookup("econd")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("econd: Len() = %d, want 2", s.Len())
	}
	if !strings.HasSuffix(repo.Source("econd"), "econ_d.yaml") {
		t.Errorf("Source() = %q", repo.Source("econd"))
	}

	if _, err := repo.Lookup("hgcroc"); err == nil {
		t.Error("expected error for unknown chip")
	}
}

func TestRepositoryRejectsDuplicates(t *testing.T) {
	repo := NewRepository()
	path := testdata("regmaps", "econ_t.yaml")
	if err := repo.LoadFiles(path); err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}
	if err := repo.LoadFiles(path); err == nil {
		t.Error("expected duplicate chip error")
	}
	if err := repo.Add(nil); err == nil {
		t.Error("expected error for nil schema")
	}
}

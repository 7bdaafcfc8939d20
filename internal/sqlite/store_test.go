package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, DBFileName)); os.IsNotExist(err) {
		t.Errorf("%s not created", DBFileName)
	}
}

func TestReopenPreservesData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	created, err := s.Spaces().CreateSpace(ctx, &types.Space{Name: "Home"})
	if err != nil {
		t.Fatalf("CreateSpace failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	got, err := s2.Spaces().GetSpaceByID(ctx, created.SpaceID)
	if err != nil {
		t.Fatalf("GetSpaceByID after reopen failed: %v", err)
	}
	if got.Name != "Home" {
		t.Errorf("expected name Home, got %q", got.Name)
	}
}

func TestCloseIdempotent(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := generateID()
		if id == "" {
			t.Fatal("generateID returned empty string")
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSnapshot_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")

	s := &Snapshot{
		Taken:             time.Unix(0, 0),
		Tick:              42,
		CurrentDomain:     1,
		CurrentDomainTime: 3,
		Threads: []ThreadSnapshot{
			{ID: 0x4001, Name: "idle", State: "RUNNING", Priority: 0, Domain: 0},
		},
	}

	if err := s.Save(path); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot() failed: %v", err)
	}
	if loaded.Tick != s.Tick {
		t.Errorf("Tick = %d, want %d", loaded.Tick, s.Tick)
	}
	if len(loaded.Threads) != 1 || loaded.Threads[0].ID != 0x4001 {
		t.Errorf("Threads = %+v, want one thread with ID 0x4001", loaded.Threads)
	}
}

func TestSnapshot_SaveNoPartialOnRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")

	s := &Snapshot{Tick: 1}
	if err := s.Save(path); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	entries, err := filepath.Glob(filepath.Join(dir, ".snapshot-*.tmp"))
	if err != nil {
		t.Fatalf("Glob() failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no leftover temp files, found: %v", entries)
	}
}

func TestLoadSnapshot_MissingFile(t *testing.T) {
	_, err := LoadSnapshot("/nonexistent/path/snapshot.json")
	if err == nil {
		t.Error("expected error loading nonexistent file")
	}
}

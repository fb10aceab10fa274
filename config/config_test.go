package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultBoot_Validates(t *testing.T) {
	b := DefaultBoot()
	if err := b.Validate(); err != nil {
		t.Fatalf("DefaultBoot() should validate, got: %v", err)
	}
}

func TestBoot_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boot.json")

	b := DefaultBoot()
	if err := b.Save(path); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := LoadBoot(path)
	if err != nil {
		t.Fatalf("LoadBoot() failed: %v", err)
	}
	if len(loaded.Threads) != len(b.Threads) {
		t.Errorf("loaded %d threads, want %d", len(loaded.Threads), len(b.Threads))
	}
	if loaded.Threads[0].Name != "idle" {
		t.Errorf("loaded thread name = %q, want %q", loaded.Threads[0].Name, "idle")
	}
}

func TestLoadBoot_MissingFile(t *testing.T) {
	_, err := LoadBoot("/nonexistent/path/boot.json")
	if err == nil {
		t.Error("expected error loading nonexistent file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		boot    Boot
		wantErr bool
	}{
		{
			name:    "empty domain schedule",
			boot:    Boot{},
			wantErr: true,
		},
		{
			name: "domain out of range",
			boot: Boot{
				DomainSchedule: []DomainSlice{{Domain: NumDomains, LengthTicks: 5}},
			},
			wantErr: true,
		},
		{
			name: "non-positive slice length",
			boot: Boot{
				DomainSchedule: []DomainSlice{{Domain: 0, LengthTicks: 0}},
			},
			wantErr: true,
		},
		{
			name: "thread priority out of range",
			boot: Boot{
				DomainSchedule: []DomainSlice{{Domain: 0, LengthTicks: 5}},
				Threads:        []ThreadSpec{{Name: "t", Priority: NumPriorities, MCP: 0, Budget: MinBudget}},
			},
			wantErr: true,
		},
		{
			name: "priority exceeds mcp",
			boot: Boot{
				DomainSchedule: []DomainSlice{{Domain: 0, LengthTicks: 5}},
				Threads:        []ThreadSpec{{Name: "t", Priority: 10, MCP: 5, Budget: MinBudget}},
			},
			wantErr: true,
		},
		{
			name: "budget below minimum",
			boot: Boot{
				DomainSchedule: []DomainSlice{{Domain: 0, LengthTicks: 5}},
				Threads:        []ThreadSpec{{Name: "t", Priority: 1, MCP: 1, Budget: MinBudget - 1}},
			},
			wantErr: true,
		},
		{
			name: "valid",
			boot: Boot{
				DomainSchedule: []DomainSlice{{Domain: 0, LengthTicks: 5}},
				Threads:        []ThreadSpec{{Name: "t", Priority: 1, MCP: 1, Budget: MinBudget}},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.boot.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

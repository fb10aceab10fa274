package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	kernelerrors "wellkernel/errors"
)

// Snapshot is a point-in-time debug dump of the kernel simulation,
// written by the CLI between syscalls for inspection. It has no
// kernel-side existence: the kernel itself holds only RAM state and
// cold-boots from Boot and the object-table pool, never from a
// Snapshot (§6 "Persisted state: None" still holds for the kernel
// proper — this is strictly an outside-observer artifact).
type Snapshot struct {
	// Taken is when the snapshot was captured.
	Taken time.Time `json:"taken"`

	// Tick is the kernel's current monotonic tick count.
	Tick int64 `json:"tick"`

	// CurrentDomain is the active scheduling domain.
	CurrentDomain int `json:"currentDomain"`

	// CurrentDomainTime is the ticks remaining in the current
	// domain's slice.
	CurrentDomainTime int64 `json:"currentDomainTime"`

	// Threads is a flat dump of per-thread debug state.
	Threads []ThreadSnapshot `json:"threads"`
}

// ThreadSnapshot is the debug-visible state of one thread.
type ThreadSnapshot struct {
	ID       uint32 `json:"id"`
	Name     string `json:"name"`
	State    string `json:"state"`
	Priority int    `json:"priority"`
	Domain   int    `json:"domain"`
}

// LoadSnapshot loads a debug snapshot from a JSON file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, kernelerrors.Wrap(err, kernelerrors.InvalPara, "load_snapshot")
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, kernelerrors.Wrap(err, kernelerrors.InvalPara, "load_snapshot")
	}
	return &s, nil
}

// Save writes the snapshot to path atomically, via a temp file in the
// same directory followed by a rename, so a crash mid-write never
// leaves a corrupt snapshot behind.
func (s *Snapshot) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return kernelerrors.Wrap(err, kernelerrors.InvalPara, "save_snapshot")
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return kernelerrors.Wrap(err, kernelerrors.InvalPara, "save_snapshot")
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return kernelerrors.Wrap(err, kernelerrors.InvalPara, "save_snapshot")
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return kernelerrors.Wrap(err, kernelerrors.InvalPara, "save_snapshot")
	}
	if err := tmpFile.Close(); err != nil {
		return kernelerrors.Wrap(err, kernelerrors.InvalPara, "save_snapshot")
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return kernelerrors.Wrap(err, kernelerrors.InvalPara, "save_snapshot")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return kernelerrors.Wrap(err, kernelerrors.InvalPara, "save_snapshot")
	}

	success = true
	return nil
}

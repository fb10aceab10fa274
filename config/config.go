// Package config holds the kernel's static boot configuration: the
// fixed-size tables (priorities, domains, refills) that a Cortex-M
// image would otherwise bake in at link time, plus the per-thread
// boot specs loaded from a config.json-style manifest.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	kernelerrors "wellkernel/errors"
)

// Compile-time kernel geometry. On real hardware these are link-time
// constants; here they are package constants so every other package
// can size its fixed arrays off of them without a runtime dependency
// on Boot.
const (
	// NumPriorities is the number of distinct thread priority levels.
	NumPriorities = 256

	// NumDomains is the number of scheduling domains.
	NumDomains = 16

	// NumSchedRefills is the capacity of a scheduling context's
	// circular refill buffer.
	NumSchedRefills = 4

	// MinBudget is the minimum number of ticks a refill must carry for
	// its scheduling context to be enqueued (I5).
	MinBudget = 2

	// MessageRegisterNum is the number of message registers a typed
	// IPC transfer may use before IPC_MSG_OVERFLOW applies.
	MessageRegisterNum = 64
)

// DomainSlice is one entry of the static domain-rotation schedule:
// run `Domain` for `LengthTicks` ticks, then advance.
type DomainSlice struct {
	Domain      int   `json:"domain"`
	LengthTicks int64 `json:"lengthTicks"`
}

// ThreadSpec describes a thread to create at boot, before the CLI's
// simulation loop starts taking syscalls.
type ThreadSpec struct {
	// Name is a human-readable label; it has no kernel meaning.
	Name string `json:"name"`

	// Priority is the initial priority, in [0, NumPriorities).
	Priority int `json:"priority"`

	// MCP is the maximum controlled priority this thread may set on
	// itself or on threads it creates.
	MCP int `json:"mcp"`

	// Domain is the scheduling domain, in [0, NumDomains).
	Domain int `json:"domain"`

	// Period is the scheduling context's period in ticks. Zero means
	// a round-robin context (exactly two refills).
	Period int64 `json:"period"`

	// Budget is the scheduling context's total budget in ticks.
	Budget int64 `json:"budget"`
}

// Boot is the static configuration the kernel simulation reads once
// at startup, analogous to the teacher's Spec loaded from
// config.json.
type Boot struct {
	// DomainSchedule is the static round-robin domain table.
	DomainSchedule []DomainSlice `json:"domainSchedule"`

	// Threads are the threads to create before the simulation loop
	// starts dispatching.
	Threads []ThreadSpec `json:"threads"`
}

// LoadBoot loads a boot configuration from a JSON file.
func LoadBoot(path string) (*Boot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, kernelerrors.Wrap(err, kernelerrors.InvalPara, "load_boot")
	}
	var b Boot
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, kernelerrors.Wrap(err, kernelerrors.InvalPara, "load_boot")
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Save writes the boot configuration to a JSON file.
func (b *Boot) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return kernelerrors.Wrap(err, kernelerrors.InvalPara, "save_boot")
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the boot configuration against the compile-time
// kernel geometry, the way a real image's boot code would reject a
// malformed domain_schedule or per-thread spec before entering the
// scheduler.
func (b *Boot) Validate() error {
	if len(b.DomainSchedule) == 0 {
		return kernelerrors.New(kernelerrors.InvalPara, "validate_boot", "domain schedule is empty")
	}
	for i, slice := range b.DomainSchedule {
		if slice.Domain < 0 || slice.Domain >= NumDomains {
			return kernelerrors.New(kernelerrors.InvalSched, "validate_boot",
				fmt.Sprintf("domain schedule[%d]: domain %d out of range", i, slice.Domain))
		}
		if slice.LengthTicks <= 0 {
			return kernelerrors.New(kernelerrors.InvalSched, "validate_boot",
				fmt.Sprintf("domain schedule[%d]: non-positive length", i))
		}
	}
	for i, ts := range b.Threads {
		if ts.Priority < 0 || ts.Priority >= NumPriorities {
			return kernelerrors.New(kernelerrors.InvalSched, "validate_boot",
				fmt.Sprintf("thread[%d] %q: priority %d out of range", i, ts.Name, ts.Priority))
		}
		if ts.MCP < 0 || ts.MCP >= NumPriorities {
			return kernelerrors.New(kernelerrors.InvalSched, "validate_boot",
				fmt.Sprintf("thread[%d] %q: mcp %d out of range", i, ts.Name, ts.MCP))
		}
		if ts.Priority > ts.MCP {
			return kernelerrors.New(kernelerrors.NoPrivilege, "validate_boot",
				fmt.Sprintf("thread[%d] %q: priority %d exceeds mcp %d", i, ts.Name, ts.Priority, ts.MCP))
		}
		if ts.Domain < 0 || ts.Domain >= NumDomains {
			return kernelerrors.New(kernelerrors.InvalSched, "validate_boot",
				fmt.Sprintf("thread[%d] %q: domain %d out of range", i, ts.Name, ts.Domain))
		}
		if ts.Budget < MinBudget {
			return kernelerrors.New(kernelerrors.InvalSched, "validate_boot",
				fmt.Sprintf("thread[%d] %q: budget %d below minimum %d", i, ts.Name, ts.Budget, MinBudget))
		}
	}
	return nil
}

// DefaultBoot returns a minimal boot configuration suitable for a
// smoke-test simulation run: a two-domain round-robin schedule and a
// single idle thread.
func DefaultBoot() *Boot {
	return &Boot{
		DomainSchedule: []DomainSlice{
			{Domain: 0, LengthTicks: 5},
			{Domain: 1, LengthTicks: 5},
		},
		Threads: []ThreadSpec{
			{
				Name:     "idle",
				Priority: 0,
				MCP:      0,
				Domain:   0,
				Period:   0,
				Budget:   1000,
			},
		},
	}
}

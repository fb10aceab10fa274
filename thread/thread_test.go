package thread

import (
	"errors"
	"testing"

	kernelerrors "wellkernel/errors"
)

func TestID_NumberVersion(t *testing.T) {
	id := NewID(42, 7)
	if id.Number() != 42 {
		t.Errorf("Number() = %d, want 42", id.Number())
	}
	if id.Version() != 7 {
		t.Errorf("Version() = %d, want 7", id.Version())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{0, "none"},
		{Queued, "Queued"},
		{RecvBlocked | Queued, "RecvBlocked|Queued"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_HasAny(t *testing.T) {
	s := RecvBlocked | Restart
	if !s.Has(RecvBlocked) {
		t.Error("Has(RecvBlocked) should be true")
	}
	if s.Has(RecvBlocked | SendBlocked) {
		t.Error("Has(RecvBlocked|SendBlocked) should be false")
	}
	if !s.Any(SendBlocked | Restart) {
		t.Error("Any(SendBlocked|Restart) should be true")
	}
}

func TestTCB_SetState_RejectsQueuedWithBlocked(t *testing.T) {
	tcb := New(NewID(1, 0), "t")
	tcb.Lock()
	defer tcb.Unlock()

	if err := tcb.SetState(Queued | RecvBlocked); err == nil {
		t.Error("expected error setting Queued with RecvBlocked")
	}
	var kerr *kernelerrors.KernelError
	if err := tcb.SetState(Queued | RecvBlocked); !errors.As(err, &kerr) {
		t.Error("expected a *KernelError")
	}
}

func TestTCB_SetState_AllowsValidCombinations(t *testing.T) {
	tcb := New(NewID(1, 0), "t")
	tcb.Lock()
	defer tcb.Unlock()

	if err := tcb.SetState(Queued); err != nil {
		t.Errorf("Queued alone should be valid: %v", err)
	}
	if err := tcb.SetState(RecvBlocked | Restart); err != nil {
		t.Errorf("RecvBlocked|Restart should be valid: %v", err)
	}
}

func TestTCB_SetPriority_MCPLimit(t *testing.T) {
	tcb := New(NewID(1, 0), "t")
	tcb.MCP = 10

	if err := tcb.SetPriority(10); err != nil {
		t.Errorf("priority == mcp should succeed: %v", err)
	}
	if err := tcb.SetPriority(11); !errors.Is(err, kernelerrors.ErrMCPExceeded) {
		t.Errorf("priority > mcp should fail with ErrMCPExceeded, got: %v", err)
	}
}

func TestTCB_LinkExclusivity(t *testing.T) {
	a := New(NewID(1, 0), "a")
	b := New(NewID(2, 0), "b")
	c := New(NewID(3, 0), "c")

	a.LinkReady(b, c)
	if a.ReadyPrev != b || a.ReadyNext != c {
		t.Error("LinkReady did not set ready links")
	}
	if a.MsgPrev != nil || a.MsgNext != nil {
		t.Error("LinkReady should clear msg links")
	}

	a.LinkMsg(b, c)
	if a.MsgPrev != b || a.MsgNext != c {
		t.Error("LinkMsg did not set msg links")
	}
	if a.ReadyPrev != nil || a.ReadyNext != nil {
		t.Error("LinkMsg should clear ready links")
	}

	a.Unlink()
	if a.ReadyPrev != nil || a.ReadyNext != nil || a.MsgPrev != nil || a.MsgNext != nil {
		t.Error("Unlink should clear all links")
	}
}

func TestTCB_IsBlocked(t *testing.T) {
	tcb := New(NewID(1, 0), "t")
	if tcb.IsBlocked() {
		t.Error("new TCB should not be blocked")
	}
	tcb.State = SendBlocked
	if !tcb.IsBlocked() {
		t.Error("SendBlocked TCB should be blocked")
	}
}

package refill

import "testing"

func TestNew_Periodic(t *testing.T) {
	b, err := New(0, 100, 1000, 4)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if b.Size() != 1 {
		t.Errorf("Size() = %d, want 1", b.Size())
	}
	if b.Head().Amount != 100 {
		t.Errorf("Head().Amount = %d, want 100", b.Head().Amount)
	}
	if err := b.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
}

func TestNew_RoundRobin(t *testing.T) {
	b, err := New(0, 100, 0, 4)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if b.Size() != 2 {
		t.Errorf("Size() = %d, want 2 for round-robin", b.Size())
	}
	if !b.RoundRobin() {
		t.Error("RoundRobin() should be true when period == 0")
	}
	if err := b.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
}

func TestNew_RejectsBadMax(t *testing.T) {
	if _, err := New(0, 100, 1000, 0); err == nil {
		t.Error("expected error for max < 1")
	}
	if _, err := New(0, 100, 1000, 100); err == nil {
		t.Error("expected error for max > NumSchedRefills")
	}
}

func TestBudget_Conservation(t *testing.T) {
	b, _ := New(0, 100, 1000, 4)
	before := b.Budget()
	b.SplitCheck(30)
	if after := b.Budget(); after != before {
		t.Errorf("Budget() after SplitCheck = %d, want %d (conservation)", after, before)
	}
}

func TestSplitCheck_SplitsWhenRemnantLargeEnough(t *testing.T) {
	b, _ := New(0, 100, 1000, 4)
	b.SplitCheck(30)

	if b.Size() != 2 {
		t.Fatalf("Size() = %d, want 2 after split", b.Size())
	}
	if b.Head().Amount != 70 {
		t.Errorf("Head().Amount = %d, want 70 (remnant)", b.Head().Amount)
	}
	if b.Tail().Amount != 30 {
		t.Errorf("Tail().Amount = %d, want 30 (used portion)", b.Tail().Amount)
	}
	if b.Tail().Time != 1000 {
		t.Errorf("Tail().Time = %d, want 1000 (one period later)", b.Tail().Time)
	}
}

func TestSplitCheck_MergesWhenRemnantTooSmall(t *testing.T) {
	b, _ := New(0, 100, 1000, 4)
	b.SplitCheck(99) // remnant would be 1, below MinBudget

	if b.Size() != 1 {
		t.Fatalf("Size() = %d, want 1 (merged, not split)", b.Size())
	}
	if b.Head().Amount != 100 {
		t.Errorf("Head().Amount = %d, want 100 (whole refill rescheduled)", b.Head().Amount)
	}
	if b.Head().Time != 1000 {
		t.Errorf("Head().Time = %d, want 1000", b.Head().Time)
	}
}

func TestBudgetCheck_ShiftsExhaustedRefills(t *testing.T) {
	b, _ := New(0, 100, 1000, 4)
	before := b.Budget()
	b.BudgetCheck(150) // more than head's 100

	if after := b.Budget(); after != before {
		t.Errorf("Budget() after BudgetCheck = %d, want %d (conservation)", after, before)
	}
	if err := b.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
}

func TestBudgetCheck_HeadNeverBelowMinBudgetAfterExit(t *testing.T) {
	b, _ := New(0, 100, 1000, 4)
	b.BudgetCheck(100)
	if b.Size() > 0 && b.Head().Amount > 0 && b.Head().Amount < 2 {
		t.Errorf("Head().Amount = %d, want >= MinBudget or 0", b.Head().Amount)
	}
}

func TestNoblockCheck_AdvancesUsableHead(t *testing.T) {
	b, _ := New(0, 100, 1000, 4)
	b.NoblockCheck(50)
	if b.Head().Time != 50 {
		t.Errorf("Head().Time = %d, want 50", b.Head().Time)
	}
}

func TestNoblockCheck_MergesOverlappingRefills(t *testing.T) {
	b, _ := New(0, 100, 1000, 4)
	b.SplitCheck(30) // head=(0,70) tail=(1000,30)

	b.NoblockCheck(1500) // tail's time has now also arrived
	if b.Size() != 1 {
		t.Fatalf("Size() = %d, want 1 after merge", b.Size())
	}
	if b.Head().Amount != 100 {
		t.Errorf("Head().Amount = %d, want 100 (merged)", b.Head().Amount)
	}
}

func TestUpdate_CollapsesToSingleRefill(t *testing.T) {
	b, _ := New(0, 100, 1000, 4)
	b.SplitCheck(30) // now 2 refills

	b.Update(2000, 50, 4)
	if b.Size() != 1 {
		t.Fatalf("Size() = %d, want 1 after Update with budget <= head", b.Size())
	}
	if b.Head().Amount != 50 {
		t.Errorf("Head().Amount = %d, want 50", b.Head().Amount)
	}
}

func TestUpdate_SchedulesRemainderWhenBudgetExceedsHead(t *testing.T) {
	b, _ := New(0, 100, 1000, 4)
	b.SplitCheck(30) // head = (0, 70)

	b.Update(2000, 120, 4)
	if b.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", b.Size())
	}
	if b.Head().Amount != 70 {
		t.Errorf("Head().Amount = %d, want 70", b.Head().Amount)
	}
	if b.Tail().Amount != 50 {
		t.Errorf("Tail().Amount = %d, want 50 (remainder)", b.Tail().Amount)
	}
}

func TestUpdate_RoundRobinAlwaysTwoRefills(t *testing.T) {
	b, _ := New(0, 100, 1000, 4)
	b.Update(0, 50, 4)
	if b.Size() != 2 {
		t.Errorf("Size() = %d, want 2 for round-robin update", b.Size())
	}
	if err := b.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
}

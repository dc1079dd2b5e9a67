package sysmon

import (
	"os"
	"testing"
)

func TestSample_ReturnsValidRanges(t *testing.T) {
	s := Sample()
	if s.CPUPercent < 0 || s.CPUPercent > 100 {
		t.Errorf("CPUPercent out of range: %f", s.CPUPercent)
	}
	if s.MemPercent < 0 || s.MemPercent > 100 {
		t.Errorf("MemPercent out of range: %f", s.MemPercent)
	}
}

func TestSample_MemPercentNonZero(t *testing.T) {
	s := Sample()
	if s.MemPercent == 0 {
		t.Error("expected non-zero MemPercent on a running system")
	}
}

func TestSampler_OwnProcess(t *testing.T) {
	s := NewSampler()
	pid := os.Getpid()

	first := s.Sample([]int{pid})
	st, ok := first.Procs[pid]
	if !ok {
		t.Fatalf("own process %d not sampled", pid)
	}
	if st.PID != pid || st.RSS == 0 {
		t.Errorf("unexpected stats %+v", st)
	}

	second := s.Sample([]int{pid})
	if second.Procs[pid].CPUPercent < 0 {
		t.Errorf("negative CPU delta: %f", second.Procs[pid].CPUPercent)
	}
}

func TestSampler_SkipsMissingProcess(t *testing.T) {
	s := NewSampler()
	const missing = 1 << 30
	snap := s.Sample([]int{missing})
	if _, ok := snap.Procs[missing]; ok {
		t.Error("a process that does not exist was reported")
	}
	if s.Tracked() != 0 {
		t.Errorf("Tracked() = %d, want 0", s.Tracked())
	}
}

func TestSampler_ForgetsDroppedPIDs(t *testing.T) {
	s := NewSampler()
	s.Sample([]int{os.Getpid()})
	if s.Tracked() != 1 {
		t.Fatalf("Tracked() = %d, want 1", s.Tracked())
	}
	s.Sample(nil)
	if s.Tracked() != 0 {
		t.Errorf("Tracked() = %d after dropping the pid, want 0", s.Tracked())
	}
}

// Package sysmon samples host and per-worker resource usage for the watch
// dashboard.
package sysmon

import (
	"sync"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// Stats holds a single snapshot of system-wide resource usage.
type Stats struct {
	CPUPercent float64 // 0.0 .. 100.0
	MemPercent float64 // 0.0 .. 100.0
}

// ProcStats is the resource usage of one worker process.
type ProcStats struct {
	PID        int
	CPUPercent float64 // since the previous sample; 0 on the first one
	RSS        uint64
}

// Snapshot combines host stats with the workers that could be sampled.
type Snapshot struct {
	System Stats
	Procs  map[int]ProcStats
}

// Sample collects a single system-wide CPU and memory snapshot.
// CPU uses interval=0 (delta since last call). Returns zero values on error.
func Sample() Stats {
	var s Stats
	cpuPcts, err := cpu.Percent(0, false)
	if err == nil && len(cpuPcts) > 0 {
		s.CPUPercent = cpuPcts[0]
	}
	vmem, err := mem.VirtualMemory()
	if err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
	}
	return s
}

// Sampler tracks worker processes across samples so CPU usage can be
// reported as a delta. It is safe for concurrent use.
type Sampler struct {
	mu    sync.Mutex
	procs map[int]*process.Process
}

// NewSampler returns an empty Sampler.
func NewSampler() *Sampler {
	return &Sampler{procs: make(map[int]*process.Process)}
}

// Sample reads host stats and the stats of every pid still alive. PIDs not
// passed in are forgotten.
func (s *Sampler) Sample(pids []int) Snapshot {
	snap := Snapshot{System: Sample(), Procs: make(map[int]ProcStats, len(pids))}

	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[int]struct{}, len(pids))
	for _, pid := range pids {
		wanted[pid] = struct{}{}
		p, ok := s.procs[pid]
		if !ok {
			var err error
			if p, err = process.NewProcess(int32(pid)); err != nil {
				continue
			}
			s.procs[pid] = p
		}
		st, ok := sampleProcess(p)
		if !ok {
			delete(s.procs, pid)
			continue
		}
		snap.Procs[pid] = st
	}
	for pid := range s.procs {
		if _, ok := wanted[pid]; !ok {
			delete(s.procs, pid)
		}
	}
	return snap
}

// Tracked reports how many processes the sampler currently holds.
func (s *Sampler) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.procs)
}

func sampleProcess(p *process.Process) (ProcStats, bool) {
	mi, err := p.MemoryInfo()
	if err != nil || mi == nil {
		return ProcStats{}, false
	}
	st := ProcStats{PID: int(p.Pid), RSS: mi.RSS}
	if pct, err := p.Percent(0); err == nil {
		st.CPUPercent = pct
	}
	return st, true
}

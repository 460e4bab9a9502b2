package analysis

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// perfMeter measures one analysis computation.
type perfMeter struct {
	start time.Time
	proc  *process.Process
}

func startMeter() *perfMeter {
	p := &perfMeter{start: time.Now()}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		p.proc = proc
	}
	return p
}

// peakMemory prefers the kernel's high-water mark and falls back to RSS, then
// to the Go runtime's own view when the process table is unreadable.
func (p *perfMeter) peakMemory() uint64 {
	if p.proc != nil {
		if info, err := p.proc.MemoryInfo(); err == nil && info != nil {
			if info.HWM > 0 {
				return info.HWM
			}
			if info.RSS > 0 {
				return info.RSS
			}
		}
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Sys
}

func (p *perfMeter) finish(extra map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{
		"execution_time_ms": time.Since(p.start).Milliseconds(),
		"peak_memory_bytes": p.peakMemory(),
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

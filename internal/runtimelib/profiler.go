package runtimelib

import (
	"fmt"
	"sync"
	"time"

	"github.com/lone-wolf-akela/foxlox/internal/value"
)

// profilerState mirrors the original implementation's start/stop/report
// triple (§12): a single wall-clock timer shared process-wide, backed
// by time.Since rather than a platform clock shim.
var (
	profilerMu    sync.Mutex
	profilerStart time.Time
	profilerLast  time.Duration
	profilerRun   bool
)

func profilerLib() map[string]value.Value {
	return map[string]value.Value{
		"start": fn("fox.profiler.start", 0, func(ctx value.HostContext, args []value.Value) value.Value {
			profilerMu.Lock()
			profilerStart = time.Now()
			profilerRun = true
			profilerMu.Unlock()
			return value.Nil()
		}),
		"stop": fn("fox.profiler.stop", 0, func(ctx value.HostContext, args []value.Value) value.Value {
			profilerMu.Lock()
			defer profilerMu.Unlock()
			if !profilerRun {
				ctx.Raise("profiler.stop: start() was not called")
			}
			profilerLast = time.Since(profilerStart)
			profilerRun = false
			return value.Float(profilerLast.Seconds())
		}),
		"report": fn("fox.profiler.report", 0, func(ctx value.HostContext, args []value.Value) value.Value {
			profilerMu.Lock()
			defer profilerMu.Unlock()
			return value.FromObj(ctx.Intern(fmt.Sprintf("elapsed: %s", profilerLast)))
		}),
	}
}

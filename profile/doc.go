// Package profile starts optional runtime profiling through
// [github.com/pkg/profile].
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	tinymark --pprof-mode cpu render page.tm
//	go tool pprof -http :8080 ~/.cache/tinymark/pprof/cpu.pprof
//
// Without the tag, [Modes] is empty and [Profiler.Start] returns a no-op
// [Stopper], so callers never need their own build constraints.
package profile

// Package cli contains the command line interface for tinymark.
//
// # Usage
//
//	tinymark [flags] <command> [args]
//
//	tinymark render page.tm > page.html
//	tinymark render --page --sanitize page.tm
//	tinymark fmt yaml page.tm
//	tinymark inspect page.tm
//	tinymark play --allow-js page.tm
//
// With no command, render is assumed.
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user configuration
// directory, a flat mapping of flag names to values:
//
//	log_level: debug
//	log_format: text
//
// tinymark init writes the file from the current flag values.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o tinymark .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory
package cli

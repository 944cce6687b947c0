// Package log is a thin structured logging layer over [log/slog].
//
// A [Logger] is an immutable value: options are applied when it is made
// with [Make] or derived with [Logger.Wrap], and attributes are attached with
// [Logger.With]. The zero Logger discards everything, so library types can
// hold one without checking whether logging was configured.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//	logger.Info("rendered", slog.Int("nodes", n))
//
// # Levels
//
// Besides the four slog levels the package defines [LevelTrace], printed as
// "TRACE" rather than "DEBUG-4".
//
// # Formats
//
// [FormatJSON] (default) and [FormatText]. With [WithPretty] the text format
// is colorized and the JSON format is indented.
//
// # Default logger
//
// Package-level functions ([Info], [Warn], ...) write through a process-wide
// logger adjusted with [Config]. Commands configure it once at startup.
package log

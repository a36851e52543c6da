// Package log is seqid's structured logging facade.
//
// Callers log through the Logger interface with typed Field values. The
// implementation is a log/slog handler that renders records with a
// Formatter and fans them out to Outputs, so code that already speaks slog
// can share the same pipeline.
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.WithComponent("idgen")
//	l.Info("generator ready", log.Int64("step", 20))
//
// ApplyConfig builds a logger from a Config (level, text or json, redacted
// keys, sampling). Fields attached to a context with NewContext are picked up
// by WithContext. RedirectStdLog routes the standard library logger, which
// Pebble writes to, through a Logger.
package log

// Package logging builds the slog loggers used across musicweb.
//
// New returns a console (text) or JSON logger writing to stderr and,
// optionally, a log file. Attribute helpers keep the field names used by
// the build pipeline consistent:
//
//	logger.Warn("format failed", logging.Args(
//	    logging.Album("my-album"),
//	    logging.Encoding("V0"),
//	    logging.Error(err),
//	)...)
package logging

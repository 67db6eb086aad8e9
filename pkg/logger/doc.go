/*
Package logger wraps uber-go/zap behind a small interface with verbosity
levels and structured fields.

Verbosity Levels:

	0: Info, Warn, Error (default)
	1: Debug + Level 0
	2: Trace + Level 1

Structured Logging:

	log.WithFields(logger.Fields{
	    "path":  "/var/log/app.log",
	    "lines": 12,
	}).Info("File scanned")

Output Example:

	{"level":"info","ts":"2024-01-20T15:04:05.000Z","logger":"sauce","message":"File scanned","path":"/var/log/app.log","lines":12}

Error values passed in Fields are encoded with their message, so

	log.WithFields(logger.Fields{"error": err}).Warn("Read failed")

produces an "error" key holding err.Error().

The logger is safe for concurrent use.
*/
package logger

// Package logger provides structured logging built on Go's standard slog package,
// with environment presets and attribute helpers shared by every TaskFlow process.
//
// # Usage
//
//	log := logger.New(logger.WithProduction("taskflow-worker"))
//
//	log.Info("task completed",
//		logger.Component("worker"),
//		logger.TaskID(task.ID),
//		logger.Duration(time.Since(start)),
//	)
//
// Presets cover the common cases: WithDevelopment (text, debug level) and
// WithProduction (JSON, info level). Individual aspects can be overridden with
// WithLevel, WithJSONFormatter, WithTextFormatter, WithOutput and WithAttr.
//
// Attribute helpers return an empty slog.Attr for nil or zero inputs, so call
// sites never need nil checks:
//
//	log.Error("claim failed", logger.Error(err), logger.TaskID(id))
//
// # Testing
//
// Direct output to a buffer to assert on log content:
//
//	var buf bytes.Buffer
//	log := logger.New(logger.WithJSONFormatter(), logger.WithOutput(&buf))
package logger

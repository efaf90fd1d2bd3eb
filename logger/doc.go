// Package logger provides structured logging for datumkit using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers with structured fields. Pipeline runs attach
// run_id, step and entry fields so a failing transformation can be traced
// back to the exact datum.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("pipeline")
//	log.Info("run completed", logger.Fields(logger.FieldRunID, id, logger.FieldSteps, 3))
package logger

// Package logger provides structured logging for modelkit using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers. Registry code tags its log lines with the
// family key via WithFamily.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("factory")
//	log.WithFamily(key).Info("provider installed", logger.Fields(logger.FieldAlternative, name))
package logger

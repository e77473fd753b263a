// Package logger wraps a process-wide zap logger with request scoping.
//
// main calls Init once; handlers and services use From(ctx), which returns
// the request logger injected by the logging middleware (request_id, method,
// path) or the process logger when there is none:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("ReconcileLogin"))
//	log.Info("account created", logger.AccountID(acc.ID))
//
// "dev" renders coloured console lines, "prod" renders JSON.
package logger

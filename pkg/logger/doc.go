// Package logger provides a context-aware wrapper around Go's slog package
// adding functional options for configuration, helper attribute constructors,
// and transparent injection of values stored in context.Context.
//
// The package aims to standardise structured logging across services by
// exposing a single factory, New, that creates a *slog.Logger configured by
// a set of Option functions. These options allow you to:
//
//   • Select an output format (text or json)
//   • Set the minimum log level
//   • Supply default slog.Attr values applied to every record
//   • Register ContextExtractor callbacks that inject attributes pulled from a
//     context value (for example a request id) every time Handle is invoked.
//
// # Architecture
//
// New picks slog.NewTextHandler or slog.NewJSONHandler based on the
// configured Format and wraps it in a handler that appends, per record, the
// attributes scoped on the context with WithScope and those produced by any
// registered ContextExtractor. The client scopes the datafile revision this
// way so collaborator logs (profile store, CMAB service, caches) carry it
// without passing it down explicitly:
//
//	ctx = logger.WithScope(ctx, logger.Revision(cfg.Revision()))
//
// Helper constructors such as Error, UserID, FlagKey and RuleKey live in
// attr.go and keep attribute naming consistent across the decision engine.
//
// # Usage
//
//	import "github.com/dmitrymomot/flagkit/pkg/logger"
//
//	func main() {
//	    log := logger.New(
//	        logger.WithEnvironment(cfg.Env, "decider"),
//	        logger.WithContextValue("request_id", ctxKeyRequestID),
//	    )
//	    logger.SetAsDefault(log)
//
//	    log.DebugContext(ctx, "condition evaluated to unknown",
//	        logger.UserID(userID),
//	        logger.FlagKey("checkout_redesign"),
//	    )
//	}
//
// # Configuration
//
// The behaviour of New can be tuned with a variety of Option helpers:
//
//   • WithDevelopment / WithStaging / WithProduction: sensible defaults per environment.
//   • WithFormat / WithTextFormatter / WithJSONFormatter: override output format.
//   • WithLevel / WithLevelName: set a custom slog.Level.
//   • WithAttr: attach static attributes.
//   • WithContextExtractors / WithContextValue: inject attributes from context.
//   • WithScope (on a context, not an Option): add attributes for one call tree.
//
// # Error Handling
//
// Helper functions Error and Errors produce attributes only when the supplied
// error value is non-nil allowing calls like:
//
//	log.Info("operation succeeded", logger.Error(err))
//
// without an additional nil check.
//
// # Examples
//
// Engine components default to slog.Default and accept a *slog.Logger via
// their WithLogger options.
package logger

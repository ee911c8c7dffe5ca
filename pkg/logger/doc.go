// Package logger builds *slog.Logger values with a shared set of options and
// attribute helpers, so every component of the service logs with the same keys.
//
// New creates a JSON or text handler, applies static attributes and wraps it in a
// ContextHandler that pulls request-scoped values out of context.Context on every
// record. FromConfig does the same from the LOG_LEVEL, LOG_FORMAT, APP_ENV and
// APP_NAME environment variables.
//
// # Usage
//
//	log := logger.FromConfig(cfg.Log, logger.WithContextValue("request_id", requestIDKey{}))
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "two-factor authentication activated",
//	    logger.UserID(userID),
//	    logger.Event("activated"),
//	)
//
// Attribute helpers such as Error and UserID return an empty slog.Attr for nil or
// empty input, which slog drops, so they can be passed unconditionally.
package logger

// Package logging builds the zap loggers used by the daemon and keeps secret
// values out of them.
//
//	logger, err := logging.New("info", "json")
//	logger.Info("secret created", zap.String("path", p.String()), logging.Value("value", v))
package logging

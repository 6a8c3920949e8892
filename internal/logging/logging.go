// Package logging wires github.com/sirupsen/logrus the way the teacher
// repo does throughout core: a package-level logger with a Set*Logger
// override hook (see core/wallet.go's SetWalletLogger, core/security.go's
// SetSecurityLogger), plus env-driven level parsing.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var std = logrus.New()

func init() {
	std.SetOutput(os.Stderr)
	std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Logger returns the package-level logger.
func Logger() *logrus.Logger { return std }

// SetLogger overrides the package-level logger, e.g. for tests.
func SetLogger(l *logrus.Logger) { std = l }

// SetLevel parses level (e.g. "debug", "info", "warn") and applies it to
// the package-level logger. Unrecognized values leave the level
// unchanged and return the parse error.
func SetLevel(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	std.SetLevel(lvl)
	return nil
}

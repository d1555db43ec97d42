package common

import "github.com/sirupsen/logrus"

// Settings holds the process-wide knobs that the original source kept as
// file-scope globals (globalSettings). It is constructed once at startup
// and passed down explicitly rather than read from a package global.
type Settings struct {
	Debug bool
}

var logger = logrus.StandardLogger()

// NewLogger returns a component-scoped logging entry, e.g.
// NewLogger("route").Info("destination set").
func NewLogger(component string) *logrus.Entry {
	return logger.WithField("component", component)
}

// LogInf, LogWrn, LogErr and LogDbg mirror the teacher's package-level
// logging wrapper convention (logInf/logErr/logDbg gated on
// globalSettings.DEBUG), backed by logrus instead of the bare log package.

func LogInf(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

func LogWrn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

func LogErr(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// LogDbg only emits when s.Debug is set, matching the teacher's
// DEBUG-gated logDbg.
func LogDbg(s *Settings, format string, args ...interface{}) {
	if s != nil && s.Debug {
		logger.Debugf(format, args...)
	}
}

package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  = newLogger(os.Stdout, logrus.InfoLevel)
	ErrorLogger = newLogger(os.Stderr, logrus.WarnLevel)
)

func newLogger(out *os.File, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetLevel(level)
	return l
}

// InitLogger reconfigures both loggers. level is a logrus level name; an
// empty or unknown value keeps info for InfoLogger.
func InitLogger(level string) {
	infoLevel, err := logrus.ParseLevel(level)
	if err != nil {
		infoLevel = logrus.InfoLevel
	}
	InfoLogger = newLogger(os.Stdout, infoLevel)
	ErrorLogger = newLogger(os.Stderr, logrus.WarnLevel)
}

package main

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// debugEnv turns on debug logging when set to a true value.
const debugEnv = "PSEUDOBULK_DEBUG"

func newLogger(w io.Writer, debug bool) *logrus.Logger {
	if env, err := strconv.ParseBool(os.Getenv(debugEnv)); err == nil && env {
		debug = true
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

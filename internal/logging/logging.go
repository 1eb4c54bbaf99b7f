// Package logging holds the shared logrus logger used by the relay server
// and the client runtime.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

func Setup() {
	// Output to stdout instead of the default stderr.
	Log.Out = os.Stdout
	Log.SetLevel(logrus.InfoLevel)
}

// Debug switches verbosity.
func Debug(t bool) {
	if t {
		Log.SetLevel(logrus.DebugLevel)
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}
}

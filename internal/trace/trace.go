// Package trace gates the library's debug logging behind the GRAPHDIFF_LOG
// environment variable. The engine never logs above debug on success paths.
package trace

import (
	"os"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/apex/log/handlers/text"
)

var (
	once    sync.Once
	enabled bool
)

func setup() {
	log.SetHandler(text.New(os.Stderr))

	envLevel := strings.ToLower(os.Getenv("GRAPHDIFF_LOG"))
	if envLevel == "" {
		envLevel = "error"
	}
	enabled = envLevel == "debug" || envLevel == "trace"

	var apexLevel log.Level
	switch envLevel {
	case "trace", "debug":
		apexLevel = log.DebugLevel
	case "info":
		apexLevel = log.InfoLevel
	case "warn":
		apexLevel = log.WarnLevel
	default:
		apexLevel = log.ErrorLevel
	}
	log.SetLevel(apexLevel)
}

// Enabled reports whether debug tracing is on. Callers use it to skip
// building expensive log arguments.
func Enabled() bool {
	once.Do(setup)
	return enabled
}

// Debugf logs a debug line when tracing is enabled.
func Debugf(format string, args ...any) {
	once.Do(setup)
	if enabled {
		log.Debugf(format, args...)
	}
}

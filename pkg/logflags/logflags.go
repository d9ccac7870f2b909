package logflags

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var scanner = false
var maps = false
var mem = false

var logOut io.WriteCloser

func makeFlaggableLogger(flag bool, fields Fields) Logger {
	level := logrus.ErrorLevel
	if flag {
		level = logrus.DebugLevel
	}
	return makeLogger(level, fields)
}

func makeLogger(level logrus.Level, fields Fields) Logger {
	factory := loggerFactory
	if factory == nil {
		factory = newLogrusLogger
	}
	return factory(level, fields, logOut)
}

// Scanner returns true if the scan orchestration should log.
func Scanner() bool {
	return scanner
}

// ScannerLogger returns a logger for the scan orchestration: attaching,
// detaching and the per-scan summary.
func ScannerLogger() Logger {
	return makeFlaggableLogger(scanner, Fields{"layer": "scanner"})
}

// Maps returns true if every mapping selected for scanning should be logged.
func Maps() bool {
	return maps
}

// MapsLogger returns a logger for the mapping table.
func MapsLogger() Logger {
	return makeFlaggableLogger(maps, Fields{"layer": "maps"})
}

// Mem returns true if memory transport failures should be logged.
func Mem() bool {
	return mem
}

// MemLogger returns a logger for the memory transport.
func MemLogger() Logger {
	return makeFlaggableLogger(mem, Fields{"layer": "mem"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets the logging flags based on the contents of logstr and the log
// destination based on logDest, which may name either a file path or an
// inherited file descriptor.
func Setup(logFlag bool, logstr, logDest string) error {
	if logDest != "" {
		n, err := strconv.Atoi(logDest)
		if err == nil {
			logOut = os.NewFile(uintptr(n), "seer-logs")
		} else {
			fh, err := os.Create(logDest)
			if err != nil {
				return fmt.Errorf("could not create log file: %v", err)
			}
			logOut = fh
		}
	}
	logrus.SetFormatter(DefaultFormatter())
	if !logFlag {
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "scanner"
	}
	for _, logcmd := range strings.Split(logstr, ",") {
		switch logcmd {
		case "scanner":
			scanner = true
		case "maps":
			maps = true
		case "mem":
			mem = true
		default:
			return fmt.Errorf("invalid log output %q, expected one of scanner, maps or mem", logcmd)
		}
	}
	return nil
}

// Close closes the logger output target.
func Close() {
	if logOut != nil {
		logOut.Close()
	}
}

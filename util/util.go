package util

import (
	"log"
	"strings"
)

// Logging is a clumsy switch that affects what Logf does.
//
// If Logging is true, then Logf calls log.Printf.  Commands set it
// from a -v flag.
var Logging = false

// Logf calls log.Printf if Logging is true.
func Logf(format string, args ...interface{}) {
	if !Logging {
		return
	}
	log.Printf(format, args...)
}

// Fields splits a command line into words.  Runs of whitespace
// separate words, and a word that starts with '#' starts a comment
// that runs to the end of the line.
func Fields(line string) []string {
	fs := strings.Fields(line)
	for i, f := range fs {
		if strings.HasPrefix(f, "#") {
			return fs[:i]
		}
	}
	return fs
}

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// logFormatter prints the message after a coloured level marker.
type logFormatter struct{}

func (f *logFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var levelColor int
	switch entry.Level {
	case logrus.DebugLevel, logrus.TraceLevel:
		levelColor = 90 // gray
	case logrus.WarnLevel:
		levelColor = 33 // yellow
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		levelColor = 31 // red
	default:
		levelColor = 36 // blue
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\x1b[%dm%-5s\x1b[0m %s", levelColor, strings.ToUpper(entry.Level.String()), entry.Message)
	for _, key := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", key, entry.Data[key])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// configureLogging sets the logrus format ("text" or "json") and level.
func configureLogging(format, level string) error {
	switch strings.ToLower(format) {
	case "", "text":
		logrus.SetFormatter(&logFormatter{})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	if level == "" {
		return nil
	}
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(logLevel)
	return nil
}

package logging

import (
	"os"
	"path"
	"time"

	"github.com/lestrrat/go-file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05.000 Z07:00"

type Options struct {
	// Directory receives rotated log files. Empty or "-" logs to stdout only.
	Directory string
	Colors    bool
	Json      bool
	Level     string
}

type utcFormatter struct {
	logrus.Formatter
}

func (f utcFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	entry.Time = entry.Time.UTC()
	return f.Formatter.Format(entry)
}

func Setup(opts Options) error {
	if opts.Level == "" {
		opts.Level = "info"
	}
	lvl, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	formatter := newFormatter(opts)
	logrus.SetLevel(lvl)
	logrus.SetFormatter(formatter)
	logrus.SetOutput(os.Stdout)

	if opts.Directory == "" || opts.Directory == "-" {
		return nil
	}
	hook, err := newFileHook(opts.Directory, formatter)
	if err != nil {
		return err
	}
	logrus.AddHook(hook)
	return nil
}

func newFormatter(opts Options) logrus.Formatter {
	if opts.Json {
		return &utcFormatter{&logrus.JSONFormatter{TimestampFormat: timestampFormat}}
	}
	return &utcFormatter{&logrus.TextFormatter{
		TimestampFormat:  timestampFormat,
		FullTimestamp:    true,
		ForceColors:      opts.Colors,
		DisableColors:    !opts.Colors,
		QuoteEmptyFields: true,
	}}
}

func newFileHook(dir string, formatter logrus.Formatter) (logrus.Hook, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}

	logFile := path.Join(dir, "snapshot_repo.log")
	writer, err := rotatelogs.New(
		logFile+".%Y%m%d%H%M",
		rotatelogs.WithLinkName(logFile),
		rotatelogs.WithMaxAge((24*time.Hour)*14),  // keep for 14 days
		rotatelogs.WithRotationTime(24*time.Hour), // rotate every 24 hours
	)
	if err != nil {
		return nil, err
	}

	writers := lfshook.WriterMap{}
	for _, lvl := range logrus.AllLevels {
		if lvl != logrus.TraceLevel {
			writers[lvl] = writer
		}
	}
	return lfshook.NewHook(writers, formatter), nil
}

// SendToDebugLogger routes a library's Printf-style logging to logrus at debug level.
type SendToDebugLogger struct{}

func (*SendToDebugLogger) Printf(format string, v ...interface{}) {
	logrus.Debugf(format, v...)
}

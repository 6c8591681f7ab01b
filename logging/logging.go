// Package logging builds the logrus logger used for run narration and turns
// progress events into structured log entries.
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lukemcguire/sitemapcheck/progress"
)

// New creates a logger writing to out. Unknown levels fall back to info;
// format "json" selects the JSON formatter, anything else the text one.
func New(level, format string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return logger
}

// LogEvents writes one entry per event until ch is closed.
func LogEvents(log logrus.FieldLogger, ch <-chan progress.Event) {
	for evt := range ch {
		LogEvent(log, evt)
	}
}

// LogEvent writes a single progress event at the level its kind warrants.
func LogEvent(log logrus.FieldLogger, evt progress.Event) {
	entry := log.WithField("event", evt.Kind.String())
	if evt.URL != "" {
		entry = entry.WithField("url", evt.URL)
	}
	if evt.Parent != "" {
		entry = entry.WithField("parent", evt.Parent)
	}

	switch evt.Kind {
	case progress.FetchStarted:
		entry.WithField("depth", evt.Depth).Info("Fetching sitemap")
	case progress.FetchFailed:
		entry.WithField("error", evt.Error).Warn("Failed to fetch sitemap")
	case progress.InvalidDocument:
		entry.WithField("error", evt.Error).Warn("Invalid sitemap document")
	case progress.NestedFound:
		entry.WithField("depth", evt.Depth).Info("Found nested sitemap")
	case progress.UnexpectedLeaf:
		entry.Warn("Page URL declared as a sitemap entry")
	case progress.LeafFound:
		entry.Debug("Found URL")
	case progress.DocumentSkipped:
		entry.WithField("reason", evt.Reason).Info("Skipped sitemap")
	case progress.CheckStarted:
		entry.WithField("total", evt.Total).Info("Checking URLs")
	case progress.URLChecked:
		entry = entry.WithFields(logrus.Fields{
			"status":  evt.StatusCode,
			"checked": evt.Checked,
			"total":   evt.Total,
		})
		switch {
		case evt.Error != "":
			entry.WithField("error", evt.Error).Warn("URL unreachable")
		case evt.StatusCode != 200:
			entry.Warn("URL returned an error status")
		default:
			entry.Debug("URL ok")
		}
	default:
		entry.Debug("Progress")
	}
}

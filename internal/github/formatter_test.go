package github

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestLogger(buf *bytes.Buffer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(buf)
	l.SetFormatter(&Formatter{})
	l.SetLevel(logrus.DebugLevel)
	return l
}

func TestFormatter_Levels(t *testing.T) {
	tests := []struct {
		name string
		log  func(l *logrus.Logger)
		want string
	}{
		{"info", func(l *logrus.Logger) { l.Info("scan started") }, "scan started\n"},
		{"debug", func(l *logrus.Logger) { l.Debug("docker -v") }, "::debug::docker -v\n"},
		{"warn", func(l *logrus.Logger) { l.Warn("no report") }, "::warning::no report\n"},
		{"error", func(l *logrus.Logger) { l.Error("Found 3 policy violations") }, "::error::Found 3 policy violations\n"},
		{"fields sorted", func(l *logrus.Logger) {
			l.WithFields(logrus.Fields{"b": 2, "a": "x"}).Info("done")
		}, "done a=x b=2\n"},
		{"escaped", func(l *logrus.Logger) { l.Error("line1\nline2 100%") }, "::error::line1%0Aline2 100%25\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(newTestLogger(&buf))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

package github

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Formatter renders logrus entries as workflow commands so the runner
// annotates warnings and errors.
type Formatter struct{}

func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	msg := b.String()

	switch entry.Level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return []byte("::debug::" + escapeData(msg) + "\n"), nil
	case logrus.WarnLevel:
		return []byte("::warning::" + escapeData(msg) + "\n"), nil
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return []byte("::error::" + escapeData(msg) + "\n"), nil
	default:
		return []byte(msg + "\n"), nil
	}
}

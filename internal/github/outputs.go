package github

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Outputs publishes step outputs. Values go to the GITHUB_OUTPUT file when the
// runner provides one and to the legacy set-output command otherwise.
type Outputs struct {
	file string
	out  io.Writer
}

func NewOutputs(file string, out io.Writer) *Outputs {
	return &Outputs{file: file, out: out}
}

// Set publishes a single output.
func (o *Outputs) Set(name, value string) error {
	if o.file == "" {
		_, err := fmt.Fprintf(o.out, "::set-output name=%s::%s\n", name, escapeData(value))
		return err
	}

	f, err := os.OpenFile(o.file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open output file %s", o.file)
	}
	defer f.Close()

	if _, err := io.WriteString(f, formatOutput(name, value)); err != nil {
		return errors.Wrapf(err, "write output %s", name)
	}
	return nil
}

func formatOutput(name, value string) string {
	if !strings.ContainsAny(value, "\r\n") {
		return name + "=" + value + "\n"
	}
	delim := "ghadelimiter_" + uuid.NewString()
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delim, value, delim)
}

// AddMask asks the runner to redact value from the log.
func AddMask(out io.Writer, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(out, "::add-mask::%s\n", escapeData(value))
}

func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}

// Package output renders a check outcome as a Nagios plugin status line.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/nmslite/check-foreman/internal/check"
)

// Line returns "<message>|<perfdata>". Performance data is left out when
// silent is set or when there is none; a trailing ";" is trimmed.
func Line(o check.Outcome, silent bool) string {
	if silent || len(o.Perf) == 0 {
		return o.Message
	}

	tokens := make([]string, len(o.Perf))
	for i, p := range o.Perf {
		tokens[i] = p.String()
	}
	perf := strings.TrimSuffix("|"+strings.Join(tokens, " "), ";")
	return o.Message + perf
}

// Write prints the status line of o to w and returns the exit code.
func Write(w io.Writer, o check.Outcome, silent bool) (int, error) {
	if _, err := fmt.Fprintln(w, Line(o, silent)); err != nil {
		return check.Unknown.ExitCode(), err
	}
	return o.Status.ExitCode(), nil
}

// Package cli holds the output helpers of the mytested command.
package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	mverrors "github.com/ivaylokenov/mytested/internal/errors"
)

// Reporter prints errors with their codes, locations and suggestions
type Reporter struct {
	out     io.Writer
	verbose bool
}

// NewReporter creates a reporter writing to out
func NewReporter(out io.Writer, verbose bool) *Reporter {
	return &Reporter{out: out, verbose: verbose}
}

// ReportWarning prints a single-line warning
func (r *Reporter) ReportWarning(format string, args ...interface{}) {
	color.New(color.FgYellow, color.Bold).Fprint(r.out, "! ")
	fmt.Fprintf(r.out, format+"\n", args...)
}

// ReportError prints err under a title. Collected errors are listed one by one.
func (r *Reporter) ReportError(title string, err error) {
	header := "ERROR: " + title
	color.New(color.FgRed, color.Bold).Fprintln(r.out, header)
	fmt.Fprintf(r.out, "%s\n\n", strings.Repeat("=", len(header)))

	var multi *mverrors.MultipleErrors
	if errors.As(err, &multi) && multi.Count() > 1 {
		for i, e := range multi.Errors {
			fmt.Fprintf(r.out, "%d) ", i+1)
			r.reportCoded(e)
		}
		return
	}

	var coded mverrors.CodedError
	if errors.As(err, &coded) {
		r.reportCoded(coded)
		return
	}
	fmt.Fprintf(r.out, "Message: %s\n\n", err.Error())
}

func (r *Reporter) reportCoded(err mverrors.CodedError) {
	color.New(color.FgCyan).Fprintf(r.out, "[%s] ", err.ErrorCode())
	fmt.Fprintf(r.out, "%s\n", err.Error())

	if r.verbose {
		r.printContext(err.Context())
		r.printChain(err.Unwrap())
	}
	if hints := err.Suggestions(); len(hints) > 0 {
		r.printSuggestions(hints)
	}
	fmt.Fprintln(r.out)
}

func (r *Reporter) printContext(context map[string]interface{}) {
	if len(context) == 0 {
		return
	}
	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(r.out, "   Context:\n")
	for _, k := range keys {
		fmt.Fprintf(r.out, "     %s: %v\n", formatContextKey(k), context[k])
	}
}

func (r *Reporter) printChain(err error) {
	level := 1
	for err != nil {
		if level == 1 {
			fmt.Fprintf(r.out, "   Caused by:\n")
		}
		fmt.Fprintf(r.out, "     %d. %s\n", level, err.Error())
		err = errors.Unwrap(err)
		level++
	}
}

func (r *Reporter) printSuggestions(suggestions []string) {
	fmt.Fprintf(r.out, "   Suggestions:\n")
	for _, s := range suggestions {
		lines := strings.Split(s, "\n")
		fmt.Fprintf(r.out, "     - %s\n", lines[0])
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				fmt.Fprintf(r.out, "       %s\n", line)
			}
		}
	}
}

// formatContextKey turns snake_case keys into Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

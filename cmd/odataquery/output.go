package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	odata "github.com/nlstn/go-odata-query"
)

var (
	errorLabel = color.New(color.FgRed, color.Bold)
	fieldLabel = color.New(color.FgYellow)
	caretMark  = color.New(color.FgRed)
)

// printError writes err to w. Query errors get their kind and option on separate
// lines and, for $filter errors with a position, a caret under the offending
// character.
func printError(w io.Writer, err error, rawQuery string, noColor bool) {
	label, field, caret := *errorLabel, *fieldLabel, *caretMark
	if noColor {
		label.DisableColor()
		field.DisableColor()
		caret.DisableColor()
	}

	label.Fprint(w, "error: ")
	fmt.Fprintln(w, err)

	qerr, ok := odata.AsError(err)
	if !ok {
		return
	}
	field.Fprint(w, "  kind:    ")
	fmt.Fprintln(w, qerr.Kind.String())
	if qerr.Option != "" {
		field.Fprint(w, "  option:  ")
		fmt.Fprintln(w, qerr.Option)
	}
	if qerr.Backend != "" {
		field.Fprint(w, "  backend: ")
		fmt.Fprintln(w, qerr.Backend)
	}

	filter := filterOf(rawQuery)
	if qerr.Option != "$filter" || qerr.Pos < 0 || qerr.Pos > len(filter) {
		return
	}
	fmt.Fprintf(w, "  %s\n  ", filter)
	caret.Fprintln(w, strings.Repeat(" ", qerr.Pos)+"^")
}

package commands

import (
	"fmt"
	"io"

	"github.com/riadafridishibly/atimewalk/scanner"
)

func writeChanges(w io.Writer, when string, changes []scanner.Change) {
	if len(changes) == 0 {
		fmt.Fprintf(w, "\nNo changes %s.\n", when)
		return
	}
	fmt.Fprintf(w, "\n%d changed %s:\n", len(changes), when)
	for _, ch := range changes {
		switch ch.Kind {
		case scanner.ChangeAtime:
			fmt.Fprintf(w, "  %s  %s -> %s (%+v)\n", ch.Path,
				scanner.Entry{Atime: ch.Before}.FormatAtime(),
				scanner.Entry{Atime: ch.After}.FormatAtime(),
				ch.Delta())
		default:
			fmt.Fprintf(w, "  %s  %s\n", ch.Path, ch.Kind)
		}
	}
}

func writeResult(w io.Writer, result scanner.ScanResult) {
	for _, e := range result {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

package ui

import (
	"fmt"
	"io"
	"os"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects OK/Info and Fail. Nil leaves a stream unchanged.
func SetOutput(out, err io.Writer) {
	if out != nil {
		stdout = out
	}
	if err != nil {
		stderr = err
	}
}

func OK(msg string) {
	t := Current()
	fmt.Fprintln(stdout, t.Success.Render(t.SymOK+" "+msg))
}

func Info(msg string) {
	t := Current()
	fmt.Fprintln(stdout, t.Muted.Render(t.SymPending+" "+msg))
}

func Fail(msg string) {
	t := Current()
	fmt.Fprintln(stderr, t.Error.Render(t.SymFail+" "+msg))
}

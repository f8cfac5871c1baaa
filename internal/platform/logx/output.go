package logx

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsTerminal verifica si el writer está conectado a una terminal
func IsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Package iocli isolates console input and output of the client so that
// commands can be driven by a mock in tests.
package iocli

import "io"

//go:generate moq -out io_mock.go . IO

// IO is what a command needs from the console. Write lets text/tabwriter
// and fmt.Fprint* target it directly.
type IO interface {
	io.Writer

	Println(a ...any)
	Printf(format string, a ...any)
	// ReadInput печатает prompt и возвращает строку без перевода строки
	ReadInput(prompt string) (string, error)
	// ReadPassword читает без эха, если вход является терминалом
	ReadPassword(prompt string) (string, error)
}

var _ IO = (*Stdio)(nil)

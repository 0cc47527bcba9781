package editor

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"
)

// ErrCancelled is returned by a UI when the operator interrupts a prompt.
var ErrCancelled = errors.New("cancelled")

// UI is the terminal the editor talks to.
type UI interface {
	// Select returns the index of the chosen item.
	Select(label string, items []string) (int, error)
	// Input asks for a line of text, pre-filled with def.
	Input(label, def string, validate func(string) error) (string, error)
	// Secret asks for a masked line of text.
	Secret(label string) (string, error)
	Confirm(label string) (bool, error)
	Printf(format string, args ...any)
}

// PromptUI implements UI with promptui. Nil streams mean the process's
// standard input and output.
type PromptUI struct {
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

func (p PromptUI) Select(label string, items []string) (int, error) {
	sel := promptui.Select{
		Label:  label,
		Items:  items,
		Size:   12,
		Stdin:  p.Stdin,
		Stdout: p.Stdout,
	}
	i, _, err := sel.Run()
	return i, translate(err)
}

func (p PromptUI) Input(label, def string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   def,
		AllowEdit: true,
		Stdin:     p.Stdin,
		Stdout:    p.Stdout,
	}
	if validate != nil {
		prompt.Validate = validate
	}
	v, err := prompt.Run()
	return v, translate(err)
}

func (p PromptUI) Secret(label string) (string, error) {
	prompt := promptui.Prompt{
		Label:  label,
		Mask:   '*',
		Stdin:  p.Stdin,
		Stdout: p.Stdout,
	}
	v, err := prompt.Run()
	return v, translate(err)
}

func (p PromptUI) Confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     p.Stdin,
		Stdout:    p.Stdout,
	}
	_, err := prompt.Run()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	}
	return false, translate(err)
}

func (p PromptUI) Printf(format string, args ...any) {
	var w io.Writer = p.Stdout
	if p.Stdout == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, format, args...)
}

// translate maps promptui's interrupt and EOF errors to ErrCancelled.
func translate(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return ErrCancelled
	}
	return err
}

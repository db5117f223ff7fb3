// Package clipboard adapts the system clipboard to ports.Clipboard.
package clipboard

import (
	"context"
	"fmt"

	cb "github.com/atotto/clipboard"
)

// System writes through the platform clipboard tools.
type System struct {
	write func(string) error
}

func NewSystem() *System {
	return &System{write: cb.WriteAll}
}

// Available reports whether a clipboard tool was found at startup.
func (s *System) Available() bool {
	return !cb.Unsupported
}

func (s *System) SetText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.write(text); err != nil {
		return fmt.Errorf("clipboard write failed: %w", err)
	}
	return nil
}

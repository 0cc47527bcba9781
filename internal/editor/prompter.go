package editor

import (
	"context"
	"errors"
	"strings"

	"github.com/mugo-bistro/mugo/internal/persist"
)

// Prompter asks for admin credentials on a UI. It satisfies persist.Prompter.
type Prompter struct {
	UI UI
	// DefaultUser pre-fills the user prompt.
	DefaultUser string
}

func (p Prompter) Credentials(ctx context.Context, reason string) (persist.Credentials, bool, error) {
	if err := ctx.Err(); err != nil {
		return persist.Credentials{}, false, err
	}
	if reason != "" {
		p.UI.Printf("%s\n", reason)
	}

	user, err := p.UI.Input("Admin user", p.DefaultUser, nil)
	if errors.Is(err, ErrCancelled) {
		return persist.Credentials{}, false, nil
	}
	if err != nil {
		return persist.Credentials{}, false, err
	}
	user = strings.TrimSpace(user)
	if user == "" {
		return persist.Credentials{}, false, nil
	}

	pass, err := p.UI.Secret("Password")
	if errors.Is(err, ErrCancelled) {
		return persist.Credentials{}, false, nil
	}
	if err != nil {
		return persist.Credentials{}, false, err
	}
	return persist.Credentials{Username: user, Password: pass}, true, nil
}

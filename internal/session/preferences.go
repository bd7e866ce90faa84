package session

import (
	"context"
	"errors"
	"fmt"
)

// Theme is the persisted UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ErrInvalidTheme is returned when a theme other than light or dark is set.
var ErrInvalidTheme = errors.New("session: invalid theme")

func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), nil
	default:
		return "", fmt.Errorf("session.ParseTheme: %q: %w", s, ErrInvalidTheme)
	}
}

// Preferences reads and writes user preferences in a Store.
type Preferences struct {
	store Store
}

func NewPreferences(store Store) *Preferences {
	return &Preferences{store: store}
}

// Theme returns the saved theme, falling back to light when unset or unreadable.
func (p *Preferences) Theme(ctx context.Context) Theme {
	v, err := p.store.Get(ctx, KeyTheme)
	if err != nil {
		return ThemeLight
	}
	theme, err := ParseTheme(v)
	if err != nil {
		return ThemeLight
	}
	return theme
}

func (p *Preferences) SetTheme(ctx context.Context, theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return fmt.Errorf("session.Preferences.SetTheme: %w", err)
	}
	if err := p.store.Set(ctx, KeyTheme, string(theme)); err != nil {
		return fmt.Errorf("session.Preferences.SetTheme: %w", err)
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/glasshabit/internal/client/models"
)

// Profile prints the profile, or with "<field> <value>" changes one of
// username, email or secret.
func (a *App) Profile(ctx context.Context, args []string) error {
	p := a.currentProfile()
	if p == nil {
		return errNotLoggedIn
	}

	if len(args) == 0 {
		fmt.Fprintf(a.out, "Username: %s\nEmail:    %s\nTheme:    %s\nPoints:   %d\n", p.Username, p.Email, p.Theme, p.Points)
		return nil
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: profile [username|email|secret <value>]")
	}

	updated := *p
	value := strings.Join(args[1:], " ")
	switch args[0] {
	case "username":
		updated.Username = value
	case "email":
		updated.Email = value
	case "secret":
		updated.SecretKeyAnswer = value
	default:
		return fmt.Errorf("unknown profile field %q", args[0])
	}

	return a.saveProfile(ctx, &updated)
}

// Theme switches to the given theme, or toggles when none is given.
func (a *App) Theme(ctx context.Context, args []string) error {
	p := a.currentProfile()
	if p == nil {
		return errNotLoggedIn
	}

	updated := *p
	switch {
	case len(args) > 0:
		updated.Theme = models.Theme(args[0])
		if !updated.Theme.Valid() {
			return fmt.Errorf("unknown theme %q, use light or dark", args[0])
		}
	case p.Theme == models.ThemeDark:
		updated.Theme = models.ThemeLight
	default:
		updated.Theme = models.ThemeDark
	}

	if err := a.saveProfile(ctx, &updated); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Theme set to %s.\n", updated.Theme)
	return nil
}

func (a *App) saveProfile(ctx context.Context, p *models.Profile) error {
	saved, err := a.session.UpdateProfile(ctx, p)
	if err != nil {
		return err
	}
	a.setProfile(saved)
	return nil
}

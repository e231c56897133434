package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/glasshabit/internal/client/services"
	"github.com/dmitrijs2005/glasshabit/internal/common"
)

// Register prompts for the profile fields and a password and creates the
// account. The password buffer is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	username, err := a.ask("Enter username")
	if err != nil {
		return err
	}
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	answer, err := a.ask("Enter secret answer (needed to reset your data)")
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	p, err := a.session.Register(ctx, services.RegisterInput{
		Username:        username,
		Email:           email,
		SecretKeyAnswer: answer,
	}, string(password))
	if err != nil {
		return err
	}

	a.setProfile(p)
	fmt.Fprintf(a.out, "Welcome, %s! A verification email was sent to %s.\n", p.Username, p.Email)
	return nil
}

// Login accepts a username known on this device or an email.
func (a *App) Login(ctx context.Context) error {
	identifier, err := a.ask("Enter username or email")
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	p, err := a.session.Login(ctx, identifier, string(password))
	if err != nil {
		return err
	}

	a.setProfile(p)
	a.log.Info(ctx, "logged in", "uid", p.ID)
	fmt.Fprintf(a.out, "Welcome back, %s!\n", p.Username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	a.setProfile(nil)
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// Recover looks the identifier up on this device and sends a password reset
// email to the matching address.
func (a *App) Recover(ctx context.Context) error {
	identifier, err := a.ask("Enter your username or email")
	if err != nil {
		return err
	}

	email, username, err := a.session.RecoverAccount(ctx, identifier)
	if err != nil {
		return err
	}
	if username != "" {
		fmt.Fprintf(a.out, "Found account %s.\n", username)
	}

	if err := a.session.ResetPassword(ctx, email); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Password reset email sent to %s.\n", email)
	return nil
}

func (a *App) ResetPassword(ctx context.Context) error {
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	if err := a.session.ResetPassword(ctx, email); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Password reset email sent to %s.\n", email)
	return nil
}

// NewPassword completes a password reset with the emailed code.
func (a *App) NewPassword(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: newpassword <code>")
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.ConfirmPasswordReset(ctx, args[0], string(password)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed, you can log in now.")
	return nil
}

func (a *App) Verify(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: verify <code>")
	}
	if err := a.session.VerifyEmail(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Email verified.")
	return nil
}

// ResetData wipes every record and the points of the signed-in user after
// asking for the secret answer.
func (a *App) ResetData(ctx context.Context) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}

	answer, err := a.ask("Enter your secret answer to confirm")
	if err != nil {
		return err
	}
	if err := a.session.ResetAllData(ctx, uid, answer); err != nil {
		return err
	}

	p, err := a.session.GetProfile(ctx, uid)
	if err != nil {
		return err
	}
	a.setProfile(p)
	fmt.Fprintln(a.out, "All data has been reset.")
	return nil
}

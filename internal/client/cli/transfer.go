package cli

import (
	"context"
	"fmt"
)

// Export prints the user's data as JSON, or stores it in the backup sink
// when a name is given.
func (a *App) Export(ctx context.Context, args []string) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		data, err := a.session.ExportData(ctx, uid)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, string(data))
		return nil
	}

	if err := a.session.Backup(ctx, uid, a.sink, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Backup saved as %s.\n", args[0])
	return nil
}

// Import replaces the user's data with a backup from the sink.
func (a *App) Import(ctx context.Context, args []string) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: import <name>")
	}

	if err := a.session.Restore(ctx, uid, a.sink, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Backup %s imported.\n", args[0])
	return nil
}

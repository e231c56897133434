package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/glasshabit/internal/buildinfo"
	"github.com/dmitrijs2005/glasshabit/internal/client/backup"
	"github.com/dmitrijs2005/glasshabit/internal/client/cli"
	"github.com/dmitrijs2005/glasshabit/internal/client/config"
	"github.com/dmitrijs2005/glasshabit/internal/client/identity"
	"github.com/dmitrijs2005/glasshabit/internal/client/repositories/kv"
	"github.com/dmitrijs2005/glasshabit/internal/client/services"
	"github.com/dmitrijs2005/glasshabit/internal/filex"
	"github.com/dmitrijs2005/glasshabit/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		log.Fatalf("%v", err)
	}

}

// run wires the store, identity provider, session and backup sink from the
// configuration in args and serves the CLI on in/out until the user exits.
func run(ctx context.Context, args []string, in io.Reader, out, logOut io.Writer) error {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}

	logger := logging.New(logOut, cfg.LogLevel, cfg.LogFormat)

	if cfg.StorageDriver == kv.DriverSQLite && cfg.StorageDSN != ":memory:" {
		if _, err := filex.EnsureDir(filepath.Dir(cfg.StorageDSN)); err != nil {
			return fmt.Errorf("data dir: %w", err)
		}
	}

	store, err := kv.Open(ctx, cfg.StorageDriver, cfg.StorageDSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	provider, err := identity.NewLocalProvider(ctx, store, identity.NewLogMailer(logger), logger, identity.LocalProviderConfig{
		Namespace:  cfg.Namespace,
		Secret:     []byte(cfg.IdentitySecret),
		SessionTTL: cfg.SessionTTL,
	})
	if err != nil {
		return fmt.Errorf("identity provider: %w", err)
	}

	session := services.NewSession(services.Deps{
		Store:     store,
		Namespace: cfg.Namespace,
		Gateway:   provider,
		Log:       logger,
	})
	defer session.Close(ctx)

	sink, err := backup.Open(ctx, cfg.Backup)
	if err != nil {
		return fmt.Errorf("backup sink: %w", err)
	}

	cli.NewApp(session, sink, in, out, logger).Run(ctx)
	return nil
}

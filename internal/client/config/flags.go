package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/glasshabit/internal/flagx"
)

// parseFlags overlays cfg with the flags it knows about. Other arguments
// are filtered out with flagx.FilterArgs first.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-d", "-dsn", "-ns", "-s", "-l"})

	fs := flag.NewFlagSet("glasshabit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.StorageDriver, "d", cfg.StorageDriver, "storage driver (sqlite, postgres, memory)")
	fs.StringVar(&cfg.StorageDSN, "dsn", cfg.StorageDSN, "storage DSN")
	fs.StringVar(&cfg.Namespace, "ns", cfg.Namespace, "key namespace")
	sessionTTL := fs.Int("s", int(cfg.SessionTTL.Minutes()), "session lifetime (in minutes)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "s" {
			cfg.SessionTTL = time.Duration(*sessionTTL) * time.Minute
		}
	})
	return nil
}

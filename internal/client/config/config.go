package config

import (
	"time"

	"github.com/dmitrijs2005/glasshabit/internal/client/backup"
)

// Config holds runtime settings for the GlassHabit CLI.
type Config struct {
	StorageDriver string
	StorageDSN    string
	Namespace     string

	// IdentitySecret signs identity tokens. Empty means a secret is
	// generated and kept in the store on first start.
	IdentitySecret string
	SessionTTL     time.Duration

	LogLevel  string
	LogFormat string

	Backup backup.Config
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StorageDriver = "sqlite"
	c.StorageDSN = "data/glasshabit.db"
	c.Namespace = "glasshabit_"
	c.SessionTTL = 720 * time.Hour
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.Backup = backup.Config{Driver: "file", Dir: "data/backups"}
}

// LoadConfig applies defaults, then the config file named in args (if
// any), then flags from args. args excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

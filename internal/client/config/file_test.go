package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_parseFile(t *testing.T) {
	jsonPath := writeTemp(t, "cfg.json", `{
		"storage_driver": "memory",
		"session_ttl": "30m",
		"log_format": "json",
		"backup": {"driver": "s3", "s3_bucket": "gh", "s3_region": "us-east-1"}
	}`)
	yamlPath := writeTemp(t, "cfg.yml", `
storage_dsn: postgres://gh@localhost/gh
identity_secret: s3cr3t
session_ttl: 3600000000000
backup:
  dir: /tmp/gh-backups
`)

	t.Run("json", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseFile(cfg, []string{"-config", jsonPath}))

		assert.Equal(t, "memory", cfg.StorageDriver)
		assert.Equal(t, "data/glasshabit.db", cfg.StorageDSN)
		assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "s3", cfg.Backup.Driver)
		assert.Equal(t, "gh", cfg.Backup.S3Bucket)
		assert.Equal(t, "data/backups", cfg.Backup.Dir)
	})

	t.Run("yaml", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseFile(cfg, []string{"-c", yamlPath}))

		assert.Equal(t, "sqlite", cfg.StorageDriver)
		assert.Equal(t, "postgres://gh@localhost/gh", cfg.StorageDSN)
		assert.Equal(t, "s3cr3t", cfg.IdentitySecret)
		assert.Equal(t, time.Hour, cfg.SessionTTL)
		assert.Equal(t, "/tmp/gh-backups", cfg.Backup.Dir)
		assert.Equal(t, "file", cfg.Backup.Driver)
	})

	t.Run("no file leaves config alone", func(t *testing.T) {
		cfg := &Config{Namespace: "keep_"}
		require.NoError(t, parseFile(cfg, []string{"-d", "memory"}))
		assert.Equal(t, &Config{Namespace: "keep_"}, cfg)
	})

	t.Run("invalid json", func(t *testing.T) {
		bad := writeTemp(t, "bad.json", `{ not json`)
		assert.Error(t, parseFile(&Config{}, []string{"-config", bad}))
	})

	t.Run("invalid duration", func(t *testing.T) {
		bad := writeTemp(t, "bad.yaml", "session_ttl: soon\n")
		assert.Error(t, parseFile(&Config{}, []string{"-c", bad}))
	})
}

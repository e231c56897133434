package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/glasshabit/internal/flagx"
	"github.com/dmitrijs2005/glasshabit/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig is a DTO used exclusively for unmarshalling config files.
// Zero values leave the corresponding Config field untouched.
type fileConfig struct {
	StorageDriver  string         `json:"storage_driver" yaml:"storage_driver"`
	StorageDSN     string         `json:"storage_dsn" yaml:"storage_dsn"`
	Namespace      string         `json:"namespace" yaml:"namespace"`
	IdentitySecret string         `json:"identity_secret" yaml:"identity_secret"`
	SessionTTL     timex.Duration `json:"session_ttl" yaml:"session_ttl"`
	LogLevel       string         `json:"log_level" yaml:"log_level"`
	LogFormat      string         `json:"log_format" yaml:"log_format"`
	Backup         fileBackup     `json:"backup" yaml:"backup"`
}

type fileBackup struct {
	Driver      string `json:"driver" yaml:"driver"`
	Dir         string `json:"dir" yaml:"dir"`
	S3Bucket    string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region    string `json:"s3_region" yaml:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint" yaml:"s3_endpoint"`
	S3AccessKey string `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3Prefix    string `json:"s3_prefix" yaml:"s3_prefix"`
}

func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.StorageDriver, fc.StorageDriver)
	setString(&cfg.StorageDSN, fc.StorageDSN)
	setString(&cfg.Namespace, fc.Namespace)
	setString(&cfg.IdentitySecret, fc.IdentitySecret)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	if fc.SessionTTL.Duration > 0 {
		cfg.SessionTTL = fc.SessionTTL.Duration
	}

	b := &cfg.Backup
	setString(&b.Driver, fc.Backup.Driver)
	setString(&b.Dir, fc.Backup.Dir)
	setString(&b.S3Bucket, fc.Backup.S3Bucket)
	setString(&b.S3Region, fc.Backup.S3Region)
	setString(&b.S3Endpoint, fc.Backup.S3Endpoint)
	setString(&b.S3AccessKey, fc.Backup.S3AccessKey)
	setString(&b.S3SecretKey, fc.Backup.S3SecretKey)
	setString(&b.S3Prefix, fc.Backup.S3Prefix)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

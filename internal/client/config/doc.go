// Package config loads runtime configuration for the GlassHabit CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c or -config. Files ending in
//     .yaml or .yml are read as YAML, anything else as JSON.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-d string    storage driver: sqlite, postgres or memory
//	-dsn string  storage DSN (sqlite file path or postgres URL)
//	-ns string   key namespace
//	-s int       session lifetime (minutes)
//	-l string    log level: debug, info, warn, error
//
// # File schema
//
// Durations use timex.Duration, so they can be strings like "720h" or
// integer nanoseconds:
//
//	storage_driver: sqlite
//	storage_dsn: data/glasshabit.db
//	namespace: glasshabit_
//	session_ttl: 720h
//	log_level: info
//	log_format: text
//	backup:
//	  driver: s3
//	  s3_bucket: glasshabit
//	  s3_region: us-east-1
//	  s3_endpoint: http://127.0.0.1:9000
//
// Environment variables are not read; AWS credentials missing from the file
// fall back to the SDK's default chain.
package config

// Package config provides configuration management for the fleet manager.
//
// Settings are read from environment variables (optionally seeded from a .env
// file) through Viper. Defaults live next to each field in a `default` struct
// tag, so every sub-package owns its own section:
//   - Server: HTTP port, API key and rate limits
//   - Database: driver (mysql, postgres, sqlite) and connection details
//   - Storage: S3/MinIO credentials and the snapshot archive bucket
//   - Log: level and encoding
//
// Nested keys map to upper-case environment names joined by underscores,
// e.g. database.driver is DATABASE_DRIVER.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.Driver)
package config

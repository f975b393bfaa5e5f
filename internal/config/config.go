package config

import "os"

// Config holds application configuration values.
type Config struct {
	DatabaseDSN string
	ExportPath  string
}

// Load reads configuration from environment variables with reasonable
// defaults. Everything works out of the box with no environment set.
func Load() Config {
	dsn := os.Getenv("STOK73_DB")
	if dsn == "" {
		dsn = "stok73.db"
	}

	exportPath := os.Getenv("STOK73_EXPORT")
	if exportPath == "" {
		exportPath = "stok_listesi.xlsx"
	}

	return Config{DatabaseDSN: dsn, ExportPath: exportPath}
}

// Package config loads the client's startup settings.
//
// # Resolution Order
//
// Each field is resolved from, lowest priority first:
//
//  1. Built-in defaults
//  2. The TOML file (default ~/.config/beerstore/config.toml)
//  3. The .env file passed to Load, read with godotenv without touching the
//     process environment
//  4. The process environment (BEERSTORE_API_HOST, BEERSTORE_DATA_DIR,
//     BEERSTORE_LOG_FILE)
//
// Missing files are not an error. Blank values count as unset.
//
// # Default Values
//
//   - API host: localhost:3000
//   - Data directory: ~/.local/share/beerstore
//   - Log file: <data_dir>/beerstore.log
//   - List window: 20 items
//
// Derived paths:
//
//   - Cache database: <data_dir>/cache.db
//   - Photos: <data_dir>/photos
//
// # TOML Format
//
//	api_host = "192.168.1.7:3000"
//	data_dir = "~/.local/share/beerstore"
//	log_file = "/tmp/beerstore.log"
//	page_window = 20
//
// Tilde paths are expanded and relative paths made absolute.
package config

// Package config loads the bloop configuration file.
//
// # Format
//
// The file is YAML unless its name ends in .toml. Environment variables
// written as ${VAR} are expanded before parsing:
//
//	server:
//	  base_url: "http://localhost:7878"
//	  user_id: "${USER}"
//	auth:
//	  token_file: "~/.config/bloop/token"
//	  jwt_secret: "${BLOOP_JWT_SECRET}"
//	stream:
//	  stall_timeout: "2m"     # "0" disables stall detection
//	  request_timeout: "30s"  # time to wait for response headers
//	  max_event_size: 65536
//	database:
//	  driver: "sqlite"        # or "sqlite3" (cgo)
//	  path: "~/.local/share/bloop/bloop.db"
//	logging:
//	  level: "info"
//	  format: "text"
//	devserver:
//	  addr: "localhost:7878"
//	  corpus_root: "."
//	  tokens_per_second: 20
//	  max_snippets: 5
//	  cache_ttl: "1m"         # "0" disables the search result cache
//
// Every key is optional; missing keys keep the value from Default().
// Durations are written as Go duration strings and parsed after decoding.
//
// # Lookup
//
// LoadOrDefault with an empty path tries $BLOOP_CONFIG, then
// $XDG_CONFIG_HOME/bloop/config.yaml, then ~/.config/bloop/config.yaml.
// When none exists the defaults are used as-is.
package config

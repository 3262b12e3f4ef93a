// Package config provides configuration management for the secrets daemon.
//
// Configuration is loaded from defaults, then the optional YAML file at
// $SECRETS_CONFIG_PATH/secrets.yml, then environment variables. Each
// attribute remembers which of the three it came from.
//
// # Key Configuration Options
//
//   - SECRETS_SOCKET_PATH: Unix socket the daemon listens on
//   - SECRETS_DB_PATH: Directory holding one file per principal
//   - SECRETS_MAX_SECRETS: Secrets allowed per principal, -1 for unbounded
//   - SECRETS_MAX_PAYLOAD_SIZE: Largest secret value, e.g. 16KiB
//   - SECRETS_MAX_NEST_LEVEL: Deepest container level
//   - SECRETS_LOG_LEVEL: Logging verbosity
package config

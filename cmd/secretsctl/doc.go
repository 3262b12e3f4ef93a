// Command secretsctl runs the secrets daemon and manages secrets through it.
//
// # Quick Start
//
//	# Start the daemon
//	secretsctl server --watch-config
//
//	# Store, read and remove secrets of the calling user
//	secretsctl mkdir app/
//	echo -n s3cr3t | secretsctl put app/token
//	secretsctl get app/token
//	secretsctl list app/
//	secretsctl delete app/token
//
// # Environment Variables
//
//   - SECRETS_CONFIG_PATH: Directory holding secrets.yml (default: /etc/secrets-in-go)
//   - SECRETS_SOCKET_PATH: Daemon socket path
//   - SECRETS_DB_PATH: Directory holding the namespace files
//   - SECRETS_MAX_SECRETS, SECRETS_MAX_PAYLOAD_SIZE, SECRETS_MAX_NEST_LEVEL: Limits
//   - SECRETS_LOG_LEVEL, SECRETS_LOG_FORMAT: Logging
//   - AUDIT_DATABASE_URL: PostgreSQL connection string for audit records
package main

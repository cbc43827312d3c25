// Package config handles configuration loading, parsing, and validation
// from environment variables (prefixed NATOURS_), an optional config.env
// file and an optional config.yaml file. It provides type-safe access to the
// settings needed by the server, stores, credential manager and mailer while
// keeping configuration details separate from business logic.
package config

// Package config defines the application's configuration structure and
// loading logic. Configuration comes from built-in defaults, an optional
// YAML config file, and CLIPFLOW_-prefixed environment variables, in
// increasing order of precedence, and is validated before use.
package config

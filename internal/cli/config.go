package cli

import (
	"os"
	"path/filepath"
)

// Environment variables consulted when the matching flag is unset.
const (
	envRules    = "HOOKWATCH_RULES"
	envAuditLog = "HOOKWATCH_AUDIT_LOG"
)

// resolveRulesPath applies flag > env precedence. An empty result lets
// rules.LoadWithHash fall back to ~/.hookwatch/rules.yaml.
func resolveRulesPath(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(envRules)
}

// resolveAuditLog applies flag > env precedence. Empty disables auditing.
func resolveAuditLog(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(envAuditLog)
}

// configDir returns ~/.hookwatch.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".hookwatch"), nil
}

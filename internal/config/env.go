package config

import (
	"os"
	"sort"
	"strconv"
)

// EnvConfigPath points at a config file outside the project directory.
const EnvConfigPath = "ARXML_CONFIG_PATH"

// EnvOverride records one environment variable applied to a config
type EnvOverride struct {
	Variable string
	Path     string
	Value    string
}

// envBindings maps environment variables to config paths.
var envBindings = map[string]string{
	"ARXML_LOG_LEVEL":                 "logging.level",
	"ARXML_LOG_FORMAT":                "logging.format",
	"ARXML_LOG_FILE":                  "logging.file",
	"ARXML_AUTOSAR_VERSION":           "autosar.version",
	"ARXML_REJECT_NEGATIVE":           "autosar.rejectNegative",
	"ARXML_LOADER_WORKERS":            "loader.workers",
	"ARXML_LOADER_MAX_DOCUMENT_BYTES": "loader.maxDocumentBytes",
	"ARXML_STORAGE_ENABLED":           "storage.enabled",
	"ARXML_STORAGE_PATH":              "storage.path",
	"ARXML_EXPORT_FORMAT":             "export.format",
}

// GetSupportedEnvVars returns the recognized override variables, sorted.
func GetSupportedEnvVars() []string {
	vars := make([]string, 0, len(envBindings)+1)
	for name := range envBindings {
		vars = append(vars, name)
	}
	vars = append(vars, EnvConfigPath)
	sort.Strings(vars)
	return vars
}

// applyEnvOverrides applies set variables in name order. Values that do not
// parse for their field are skipped.
func applyEnvOverrides(cfg *Config) []EnvOverride {
	names := make([]string, 0, len(envBindings))
	for name := range envBindings {
		names = append(names, name)
	}
	sort.Strings(names)

	var applied []EnvOverride
	for _, name := range names {
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			continue
		}
		path := envBindings[name]
		if applyOverride(cfg, path, value) {
			applied = append(applied, EnvOverride{Variable: name, Path: path, Value: value})
		}
	}
	return applied
}

// applyOverride sets one config path from its string form.
func applyOverride(cfg *Config, path, value string) bool {
	switch path {
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.format":
		cfg.Logging.Format = value
	case "logging.file":
		cfg.Logging.File = value
	case "autosar.version":
		cfg.Autosar.Version = value
	case "autosar.rejectNegative":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false
		}
		cfg.Autosar.RejectNegative = b
	case "loader.workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		cfg.Loader.Workers = n
	case "loader.maxDocumentBytes":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return false
		}
		cfg.Loader.MaxDocumentBytes = n
	case "storage.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false
		}
		cfg.Storage.Enabled = b
	case "storage.path":
		cfg.Storage.Path = value
	case "export.format":
		cfg.Export.Format = value
	default:
		return false
	}
	return true
}

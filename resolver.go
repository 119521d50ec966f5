package prismlog

import (
	"os"
	"path/filepath"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envAliases maps configuration keys to environment variable names in
// priority order; the first set variable wins.
var envAliases = map[string][]string{
	"level":            {"LOG_LEVEL", "LOGGING_LEVEL", "LOG_VERBOSE"},
	"directory":        {"LOG_DIR", "LOGGING_DIR", "LOG_PATH"},
	"name":             {"LOG_FILENAME", "LOG_NAME"},
	"max_size_kb":      {"LOG_ROTATION_SIZE_KB", "LOG_MAX_SIZE_KB"},
	"backup_count":     {"LOG_BACKUP_COUNT", "LOGGING_BACKUP_COUNT"},
	"colored_console":  {"LOG_COLORED_CONSOLE", "LOG_COLOR"},
	"colored_file":     {"LOG_COLORED_FILE"},
	"exit_on_critical": {"LOG_EXIT_ON_CRITICAL", "LOGGING_EXIT_ON_CRITICAL"},
}

// ResolveConfig builds a configuration snapshot from all sources in
// increasing priority: built-in defaults, the optional YAML/JSON file,
// environment variables, already-parsed CLI values, and explicit API
// overrides. CLI and API values arrive as "key=value" strings produced
// by the caller's argument parser.
func ResolveConfig(configFile string, cliOverrides []string, apiOverrides []string) (*Config, error) {
	cfg := DefaultConfig()

	if configFile != "" {
		if err := loadConfigFile(cfg, configFile); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	for _, group := range [][]string{cliOverrides, apiOverrides} {
		for _, override := range group {
			key, value, err := parseKeyValue(override)
			if err != nil {
				return nil, err
			}
			if err := applyConfigField(cfg, key, value); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFile merges values from a YAML or JSON file into cfg.
// A missing file is not an error; the remaining sources still apply.
func loadConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmtErrorf("failed to read config file '%s': %w", path, err)
	}

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = kyaml.Parser()
	case ".json":
		parser = kjson.Parser()
	default:
		return fmtErrorf("unsupported config file format: %s", path)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmtErrorf("failed to parse config file '%s': %w", path, err)
	}

	return applyFileValues(cfg, k)
}

// applyFileValues extracts known keys from the loaded tree. Scalar values
// are routed through the same field mapping as string overrides so that
// level names, booleans and integers are converted uniformly.
func applyFileValues(cfg *Config, k *koanf.Koanf) error {
	for _, key := range []string{
		"level", "name", "directory", "extension",
		"max_size_kb", "backup_count",
		"buffer_size", "max_record_rate", "lock_timeout_ms", "shutdown_grace_ms",
		"sync_every_write", "flush_interval_ms",
		"enable_file", "enable_console", "console_target",
		"colored_console", "colored_file",
		"timestamp_format", "exit_on_critical",
		"heartbeat_level", "heartbeat_interval_s",
		"internal_errors_to_stderr",
	} {
		if !k.Exists(key) {
			continue
		}
		if err := applyConfigField(cfg, key, k.String(key)); err != nil {
			return err
		}
	}

	// module_levels is the one nested key: name -> level
	if k.Exists("module_levels") {
		for name, raw := range k.StringMap("module_levels") {
			level, err := parseLevelValue(raw)
			if err != nil {
				return fmtErrorf("module_levels.%s: %w", name, err)
			}
			if cfg.ModuleLevels == nil {
				cfg.ModuleLevels = make(map[string]Level)
			}
			cfg.ModuleLevels[name] = level
		}
	}

	return nil
}

// applyEnvOverrides merges environment variables using the alias tables,
// first match per key wins.
func applyEnvOverrides(cfg *Config) error {
	for key, aliases := range envAliases {
		for _, env := range aliases {
			value, ok := os.LookupEnv(env)
			if !ok {
				continue
			}
			if err := applyConfigField(cfg, key, value); err != nil {
				return fmtErrorf("environment variable %s: %w", env, err)
			}
			break
		}
	}
	return nil
}

package cli

import (
	"errors"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	errs "github.com/adonovan/spaghetti/pkg/errors"
)

const (
	defaultConfigFile = "spaghetti.toml"
	envFile           = ".env"

	envAddr  = "SPAGHETTI_ADDR"
	envStore = "SPAGHETTI_STORE"
)

// Config is the optional configuration file. Every field has a flag of the
// same meaning; flags win over the environment, which wins over the file.
//
//	addr = "localhost:18080"
//	store = "redis://localhost:6379/0"
//	dir = "."
//	tests = false
//	no_cache = false
//	log_level = "info"
type Config struct {
	Addr     string `toml:"addr"`
	Store    string `toml:"store"`
	Dir      string `toml:"dir"`
	Tests    bool   `toml:"tests"`
	NoCache  bool   `toml:"no_cache"`
	LogLevel string `toml:"log_level"`
}

// loadConfig reads the TOML file at path, then applies SPAGHETTI_*
// variables from the process environment and from dotenv. An empty path
// reads ./spaghetti.toml if it exists; a missing dotenv file is not an error.
func loadConfig(path, dotenv string) (Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			err = nil
		}
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return cfg, errs.Wrap(errs.ErrCodeFileNotFound, err, "config file")
			}
			return cfg, errs.Wrap(errs.ErrCodeInvalidInput, err, "config file %s", path)
		}
	}

	env := map[string]string{}
	if dotenv != "" {
		vars, err := godotenv.Read(dotenv)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, errs.Wrap(errs.ErrCodeInvalidInput, err, "read %s", dotenv)
		}
		for k, v := range vars {
			env[k] = v
		}
	}
	for _, k := range []string{envAddr, envStore} {
		if v, ok := os.LookupEnv(k); ok {
			env[k] = v
		}
	}
	if v := env[envAddr]; v != "" {
		cfg.Addr = v
	}
	if v := env[envStore]; v != "" {
		cfg.Store = v
	}
	return cfg, nil
}

func parseLevel(s string) (log.Level, error) {
	level, err := log.ParseLevel(s)
	if err != nil {
		return level, errs.Wrap(errs.ErrCodeInvalidInput, err, "log_level")
	}
	return level, nil
}

// stringFlag returns the flag value if the user set the flag or nothing is
// configured, and the configured value otherwise.
func stringFlag(cmd *cobra.Command, name, value, configured string) string {
	if cmd.Flags().Changed(name) || configured == "" {
		return value
	}
	return configured
}

// boolFlag is stringFlag for booleans: an unset flag takes the configured
// value if it is true.
func boolFlag(cmd *cobra.Command, name string, value, configured bool) bool {
	if cmd.Flags().Changed(name) {
		return value
	}
	return value || configured
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	OwnerName    string   `toml:"owner_name"`
	OwnerID      string   `toml:"owner_id"`
	OwnerAliases []string `toml:"owner_aliases" validate:"dive,required"`
	IDSuffix     string   `toml:"id_suffix"`
	ReplaceFile  string   `toml:"replace_file"`
	OutDir       string   `toml:"out_dir" validate:"required"`
	Formats      []string `toml:"formats" validate:"dive,oneof=csv json text txt stdout"`
	DBPath       string   `toml:"db_path" validate:"required"`
	Workers      int      `toml:"workers" validate:"min=1,max=64"`
	LogLevel     string   `toml:"log_level" validate:"oneof=debug info warn error"`
}

// Path returns the config file location under home.
func Path(home string) string {
	return filepath.Join(home, ".config", "ath", "config.toml")
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return LoadFile(Path(home), home)
}

// LoadFile decodes path over the defaults. A missing file is not an error.
func LoadFile(cfgPath, home string) (*Config, error) {
	cfg := Defaults(home)

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// expand ~ in paths
	cfg.ReplaceFile = expandHome(cfg.ReplaceFile, home)
	cfg.OutDir = expandHome(cfg.OutDir, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}
	return cfg, nil
}

func Defaults(home string) *Config {
	return &Config{
		IDSuffix: "@facebook.com",
		OutDir:   "ath_out",
		Formats:  []string{"csv"},
		DBPath:   filepath.Join(home, ".config", "ath", "ath.db"),
		Workers:  4,
		LogLevel: "info",
	}
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
	})
	return v
}()

// Validate reports the first invalid field by its toml name.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid %s: %v fails %q", fe.Field(), fe.Value(), fe.Tag())
	}
	return err
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}

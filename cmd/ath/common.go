package main

import (
	"fmt"
	"os"

	"github.com/Zuo-Peng/archive-threads/internal/config"
	"github.com/Zuo-Peng/archive-threads/internal/identity"
	"github.com/Zuo-Peng/archive-threads/internal/index"
	"github.com/Zuo-Peng/archive-threads/internal/logging"
	"github.com/Zuo-Peng/archive-threads/internal/pipeline"
	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var globals struct {
	configPath string
	logLevel   string
}

// ownerFlags are the identity flags shared by export and index.
type ownerFlags struct {
	uid     string
	name    string
	aliases []string
	replace string
}

func (o *ownerFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.uid, "uid", "", "Owner identifier as it appears in the archive (numeric ids get the id suffix)")
	fs.StringVar(&o.name, "name", "", "Owner display name")
	fs.StringSliceVar(&o.aliases, "alias", nil, "Other names of the owner (repeatable)")
	fs.StringVar(&o.replace, "replace", "", "Rename rules file of old=new lines")
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if globals.configPath != "" {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return nil, herr
		}
		cfg, err = config.LoadFile(globals.configPath, home)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if globals.logLevel != "" {
		cfg.LogLevel = globals.logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*log.Logger, error) {
	return logging.New(cfg.LogLevel, os.Stderr)
}

// buildRules merges the owner flags over the config and builds the rules.
func buildRules(cfg *config.Config, o ownerFlags) (*identity.Rules, error) {
	rc := identity.RulesConfig{
		OwnerIdentifier:  cfg.OwnerID,
		OwnerDisplayName: cfg.OwnerName,
		OwnerAliases:     cfg.OwnerAliases,
		IDSuffix:         cfg.IDSuffix,
	}
	if o.uid != "" {
		rc.OwnerIdentifier = o.uid
	}
	if o.name != "" {
		rc.OwnerDisplayName = o.name
	}
	if len(o.aliases) > 0 {
		rc.OwnerAliases = o.aliases
	}
	replace := cfg.ReplaceFile
	if o.replace != "" {
		replace = o.replace
	}
	return pipeline.LoadRules(rc, replace)
}

func openDB(cfg *config.Config) (*index.DB, error) {
	db, err := index.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

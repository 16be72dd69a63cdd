package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFile_MissingUsesDefaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := LoadFile(filepath.Join(home, "nope.toml"), home)
	require.NoError(t, err)
	require.Equal(t, "@facebook.com", cfg.IDSuffix)
	require.Equal(t, []string{"csv"}, cfg.Formats)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, filepath.Join(home, ".config", "ath", "ath.db"), cfg.DBPath)
}

func TestLoadFile_OverridesAndExpandsHome(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
owner_name = "Me"
owner_id = "100001"
owner_aliases = ["Me Myself"]
replace_file = "~/rules.ini"
formats = ["json", "text"]
workers = 2
log_level = "debug"
`), 0o644))

	cfg, err := LoadFile(path, home)
	require.NoError(t, err)
	require.Equal(t, "Me", cfg.OwnerName)
	require.Equal(t, "100001", cfg.OwnerID)
	require.Equal(t, []string{"Me Myself"}, cfg.OwnerAliases)
	require.Equal(t, filepath.Join(home, "rules.ini"), cfg.ReplaceFile)
	require.Equal(t, []string{"json", "text"}, cfg.Formats)
	require.Equal(t, 2, cfg.Workers)
	require.Equal(t, "ath_out", cfg.OutDir)
}

func TestLoadFile_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"format":  `formats = ["xml"]`,
		"workers": `workers = 0`,
		"level":   `log_level = "loud"`,
		"alias":   `owner_aliases = [""]`,
		"syntax":  `owner_name = `,
	} {
		t.Run(name, func(t *testing.T) {
			home := t.TempDir()
			path := filepath.Join(home, "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := LoadFile(path, home)
			require.Error(t, err)
		})
	}
}

func TestValidate_NamesTomlField(t *testing.T) {
	cfg := Defaults(t.TempDir())
	cfg.Formats = []string{"csv", "xml"}
	err := cfg.Validate()
	require.ErrorContains(t, err, "formats[1]")
}

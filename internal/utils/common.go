package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lanzaboote/lanzatool/internal/constants"
	"github.com/lanzaboote/lanzatool/pkg/profile"
	"github.com/twpayne/go-vfs/v4"
)

// ReadEnv parses an env file into a map.
func ReadEnv(file string) (map[string]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return godotenv.Parse(f)
}

// LoadConfig exports the variables of the env file into the process
// environment, so flags bound to them pick them up. Variables already set
// win. A missing file is not an error.
func LoadConfig(file string) error {
	env, err := ReadEnv(file)
	if err != nil {
		if os.IsNotExist(err) {
			Log.Debug().Str("file", file).Msg("No config file")
			return nil
		}
		return err
	}
	for k, v := range env {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	Log.Debug().Str("file", file).Int("vars", len(env)).Msg("Loaded config")
	return nil
}

// DiscoverProfiles returns the system profiles found in dir, sorted by
// version. Entries that do not look like system-<n>-link are skipped.
func DiscoverProfiles(fs vfs.FS, dir string) ([]profile.Profile, error) {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var profiles []profile.Profile
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, constants.SystemProfilePrefix) || !strings.HasSuffix(name, constants.SystemProfileSuffix) {
			continue
		}
		p, err := profile.FromPath(filepath.Join(dir, name))
		if err != nil {
			Log.Debug().Err(err).Str("name", name).Msg("Skipping profile")
			continue
		}
		profiles = append(profiles, p)
	}
	profile.Sort(profiles)
	return profiles, nil
}

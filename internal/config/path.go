package config

import (
	"os"
	"path/filepath"
)

const appDir = "seqid"

// DefaultDataDir returns where the embedded backend keeps its database when
// no directory is configured. XDG_DATA_HOME wins, then the per-user
// location of the host OS, then ./data when no home directory is known.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", "data")
	}
	for _, candidate := range []struct{ probe, dir string }{
		{filepath.Join(home, "Library"), filepath.Join(home, "Library", "Application Support", appDir)},
		{filepath.Join(home, "AppData"), filepath.Join(home, "AppData", "Local", appDir)},
		{filepath.Join(home, ".local", "share"), filepath.Join(home, ".local", "share", appDir)},
	} {
		if isDir(candidate.probe) {
			return candidate.dir
		}
	}
	return filepath.Join(home, "."+appDir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

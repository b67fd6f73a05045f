package cmd

import (
	"path/filepath"
	"runtime"

	"github.com/stakevault/svault/shared/fileutil"
)

// DefaultDataDir is the default data directory to use for the databases and other
// persistence requirements.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := fileutil.HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "SVault")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Local", "SVault")
		} else {
			return filepath.Join(home, ".svault")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

package utils

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// IndyBaseDir returns the home directory of the user.
func IndyBaseDir() string {
	if v := os.Getenv("HOME"); v != "" {
		return v
	}
	currentUser, err := user.Current()
	if err != nil {
		panic(err)
	}
	return currentUser.HomeDir
}

// ExpandHome replaces the leading ~ of the path with the home directory.
func ExpandHome(path string) string {
	if path == "~" {
		return IndyBaseDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(IndyBaseDir(), path[2:])
	}
	return path
}

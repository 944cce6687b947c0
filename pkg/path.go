package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// DirMode is the permission mode for directories created by the command.
const DirMode os.FileMode = 0o700

var debugBin = regexp.MustCompile(`^__debug_bin\d*$`)

// Prefix returns the directory name used below the user configuration and
// cache directories. It is the executable's base name without extension and
// leading dots, or [Name] when running under a debugger build.
var Prefix = sync.OnceValue(func() string {
	id := os.Args[0]
	if exe, err := os.Executable(); err == nil {
		id = exe
	}

	id = filepath.Base(id)
	id = strings.TrimSuffix(id, filepath.Ext(id))
	id = strings.TrimLeft(id, ".")

	if id == "" || debugBin.MatchString(id) {
		return Name
	}

	return id
})

// ConfigDir returns the configuration directory.
var ConfigDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

// CacheDir returns the directory for transient files such as REPL history.
var CacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// ConfigPath joins elem onto [ConfigDir].
func ConfigPath(elem ...string) string {
	return filepath.Join(append([]string{ConfigDir()}, elem...)...)
}

// CachePath joins elem onto [CacheDir].
func CachePath(elem ...string) string {
	return filepath.Join(append([]string{CacheDir()}, elem...)...)
}

// MkdirAll creates the configuration and cache directories.
func MkdirAll() error {
	for _, dir := range []string{ConfigDir(), CacheDir()} {
		if err := os.MkdirAll(dir, DirMode); err != nil {
			return err
		}
	}

	return nil
}

func userDir(base func() (string, error), fallback string) string {
	dir, err := base()
	if err != nil {
		dir = "."
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, fallback)
		}
	}

	return filepath.Join(dir, Prefix())
}

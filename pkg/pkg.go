//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the module, embedded at build time.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name. It also names the configuration and cache
	// directories.
	Name = "tinymark"
	// Description is the one-line summary shown in help output.
	Description = "Declarative markup renderer with show/hide blocks and actions"
)

// AuthorInfo identifies an author.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the maintainers of the project.
var Author = []AuthorInfo{
	{"tinymark-lang", "maintainers@tinymark-lang.github.io"},
}

package cmd

import (
	"context"
	"fmt"

	"github.com/tinymark-lang/tinymark-lang.github.io/pkg"
)

// Version prints the program name and version.
type Version struct{}

// Run executes the version command.
func (Version) Run(ctx context.Context) error {
	_, err := fmt.Fprintln(output(ctx), pkg.Name, pkg.Version)

	return err
}

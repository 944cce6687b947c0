package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/tinymark-lang/tinymark-lang.github.io/log"
)

// resolve returns a [kong.ConfigurationLoader] for YAML configuration files.
//
// The file is a flat mapping from flag name to value. Names may use
// underscores in place of hyphens:
//
//	log_level: debug
//	log-format: text
//	log_pretty: false
//
// Command-line flags override configuration values. A file that does not
// parse is reported and ignored.
func resolve(ctx context.Context) func(r io.Reader) (kong.Resolver, error) {
	return func(r io.Reader) (kong.Resolver, error) {
		var m map[string]any

		err := yaml.NewDecoder(r).Decode(&m)
		if err != nil && !errors.Is(err, io.EOF) {
			log.Default().WarnContext(ctx, "ignoring configuration",
				slog.Any("error", ErrConfig.Wrap(err)))

			return config{}, nil
		}

		return makeConfig(m), nil
	}
}

// config implements [kong.Resolver] over a decoded configuration file.
type config map[string]any

func makeConfig(m map[string]any) config {
	c := make(config, len(m))

	for key, value := range m {
		c[key] = flagValue(value)
	}

	return c
}

// flagValue converts a decoded YAML value into what kong accepts for a flag.
// Kong parses numbers from strings, and sequences become comma lists.
func flagValue(v any) any {
	switch v := v.(type) {
	case nil, bool, string:
		return v

	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = fmt.Sprint(e)
		}

		return strings.Join(parts, ",")

	default:
		return fmt.Sprint(v)
	}
}

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	if value, ok := c[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}

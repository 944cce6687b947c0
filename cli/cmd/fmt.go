package cmd

import (
	"context"
	"log/slog"

	"github.com/tinymark-lang/tinymark-lang.github.io/lang"
	"github.com/tinymark-lang/tinymark-lang.github.io/log"
)

// Fmt parses a source and prints its node sequence in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Print one canonical directive per node (default)."`
	JSON   JSON   `cmd:""                    help:"Print nodes as JSON."`
	YAML   YAML   `cmd:""                    help:"Print nodes as YAML."`
	AST    AST    `cmd:""                    help:"Print nodes as an indented tree."`
}

// Input selects the single source of a fmt command.
type Input struct {
	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

func (f Input) parse(ctx context.Context) (*lang.Document, error) {
	src, err := readSource(ctx, f.Source)
	if err != nil {
		return nil, err
	}

	return lang.ParseCached(ctx, src.text,
		lang.WithLogger(log.Default()),
		lang.WithSource(src.name),
	), nil
}

// Native prints the source in canonical directive form.
type Native struct {
	Input `embed:""`
}

// Run executes the native command.
func (f *Native) Run(ctx context.Context) error {
	doc, err := f.parse(ctx)
	if err != nil {
		return err
	}

	if err := doc.Format(output(ctx)); err != nil {
		return lang.WrapError(err).With(slog.String("format", "native"))
	}

	return nil
}

// JSON prints the node sequence as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Input `embed:""`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error {
	doc, err := j.parse(ctx)
	if err != nil {
		return err
	}

	if err := doc.FormatJSON(output(ctx), j.Indent); err != nil {
		return lang.WrapError(err).With(slog.String("format", "json"))
	}

	return nil
}

// YAML prints the node sequence as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Input `embed:""`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error {
	doc, err := y.parse(ctx)
	if err != nil {
		return err
	}

	if err := doc.FormatYAML(output(ctx), y.Indent); err != nil {
		return lang.WrapError(err).With(slog.String("format", "yaml"))
	}

	return nil
}

// AST prints the node sequence as an indented tree.
type AST struct {
	Input `embed:""`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) error {
	doc, err := a.parse(ctx)
	if err != nil {
		return err
	}

	return doc.Print(output(ctx))
}

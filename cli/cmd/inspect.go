package cmd

import (
	"context"
	"log/slog"

	"github.com/goccy/go-yaml"

	"github.com/tinymark-lang/tinymark-lang.github.io/engine"
)

// Inspect prints one record per rendered element as YAML. Each source is
// rendered on its own; with several sources the records are keyed by source
// name.
type Inspect struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Sources `embed:""`
}

// Run executes the inspect command.
func (i *Inspect) Run(ctx context.Context) error {
	srcs, err := i.read(ctx)
	if err != nil {
		return err
	}

	e := newEngine(i.Timeout)

	var doc any

	if len(srcs) == 1 {
		if doc, err = inspect(ctx, e, srcs[0]); err != nil {
			return err
		}
	} else {
		var m yaml.MapSlice

		for _, s := range srcs {
			recs, err := inspect(ctx, e, s)
			if err != nil {
				return err
			}

			m = append(m, yaml.MapItem{Key: s.name, Value: recs})
		}

		doc = m
	}

	data, err := yaml.MarshalWithOptions(doc,
		yaml.Indent(i.Indent),
		yaml.IndentSequence(true),
	)
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	_, err = output(ctx).Write(data)

	return err
}

func inspect(ctx context.Context, e *engine.Engine, s source) ([]engine.Record, error) {
	recs, err := e.Inspect(ctx, s.text)
	if err != nil {
		return nil, ErrRender.Wrap(err).With(slog.String("source", s.name))
	}

	return recs, nil
}

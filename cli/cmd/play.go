package cmd

import (
	"context"
	"log/slog"

	"github.com/tinymark-lang/tinymark-lang.github.io/cli/cmd/repl"
	"github.com/tinymark-lang/tinymark-lang.github.io/engine"
	"github.com/tinymark-lang/tinymark-lang.github.io/log"
)

// Play renders a source and opens an interactive console that dispatches
// action strings to it.
type Play struct {
	AllowJS bool `help:"Allow js: actions" name:"allow-js"`

	Source string `arg:"" help:"Source file to play; omit to start empty" name:"source" optional:"" type:"existingfile"`
}

// Run executes the play command.
func (p *Play) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	var src source
	if p.Source != "" {
		if src, err = readFile(p.Source); err != nil {
			return err
		}
	}

	e := newEngine(0)

	in, err := e.Mount(ctx, src.text, engine.WithAllowScript(p.AllowJS))
	if err != nil {
		return ErrRender.Wrap(err).With(slog.String("source", src.name))
	}

	cacheDir := kongContextFrom(ctx).Model.Vars()[CacheIdentifier]

	return repl.Run(ctx, e, in, cacheDir, log.Default())
}

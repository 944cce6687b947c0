package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/tinymark-lang/tinymark-lang.github.io/engine"
	"github.com/tinymark-lang/tinymark-lang.github.io/pkg"
)

const pageLayout = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
%s</style>
</head>
<body>
%s</body>
</html>
`

// Render mounts every source in one engine and prints the resulting HTML.
// Sources share their definitions: a later source may use components and
// functions declared by an earlier one.
type Render struct {
	AllowJS   bool `help:"Allow js: actions"                                  name:"allow-js"`
	Page      bool `help:"Wrap the output in a document with the stylesheet"`
	Sanitize  bool `help:"Filter the output through a user content policy"`
	RunOnload bool `help:"Run onload actions before printing"                 name:"run-onload"`

	Sources `embed:""`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := r.read(ctx)
	if err != nil {
		return err
	}

	e := newEngine(r.Timeout)

	for _, s := range srcs {
		_, err := e.Mount(ctx, s.text, engine.WithAllowScript(r.AllowJS))
		if err != nil {
			return ErrRender.Wrap(err).With(slog.String("source", s.name))
		}
	}

	if r.RunOnload {
		e.Loop().Drain(ctx)
	}

	var body strings.Builder

	for _, in := range e.Instances() {
		s, err := in.HTML()
		if err != nil {
			return ErrRender.Wrap(err)
		}

		body.WriteString(s)
		body.WriteByte('\n')
	}

	out := body.String()

	if r.Sanitize {
		out = bluemonday.UGCPolicy().Sanitize(out)
	}

	if r.Page {
		out = fmt.Sprintf(pageLayout, pkg.Name, engine.Stylesheet, out)
	}

	_, err = io.WriteString(output(ctx), out)

	return err
}

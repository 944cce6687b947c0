package engine

import (
	"context"
	"log/slog"

	"github.com/expr-lang/expr"
)

// ScriptFunc is a host function callable from js: actions.
type ScriptFunc func(args ...any) any

// script evaluates code with expr when the instance holds the script
// capability.
func (in *Instance) script(ctx context.Context, code string, depth int) error {
	if !in.allowScript {
		return in.warn(ctx, "script not run",
			ErrCapabilityDenied.With(slog.String("code", code)))
	}

	if code == "" {
		return nil
	}

	env := in.scriptEnv(ctx, depth)

	program, err := expr.Compile(code, expr.Env(env))
	if err != nil {
		return in.warn(ctx, "script not run",
			ErrScriptFailure.Wrap(err).With(slog.String("code", code)))
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return in.warn(ctx, "script failed",
			ErrScriptFailure.Wrap(err).With(slog.String("code", code)))
	}

	in.log.TraceContext(ctx, "script done",
		slog.String("code", code), slog.Any("result", out))

	return nil
}

// scriptEnv exposes the engine's script functions and the block operations
// of the instance. Block operations report success.
func (in *Instance) scriptEnv(ctx context.Context, depth int) map[string]any {
	env := make(map[string]any, len(in.engine.funcs)+4)

	for name, fn := range in.engine.funcs {
		env[name] = fn
	}

	env["show"] = func(id string) bool { return in.show(ctx, id, depth) == nil }
	env["hide"] = func(id string) bool { return in.hide(id) == nil }
	env["toggle"] = func(id string) bool { return in.toggle(ctx, id, depth) == nil }
	env["call"] = func(id string) bool { return in.call(ctx, id, depth) == nil }

	return env
}

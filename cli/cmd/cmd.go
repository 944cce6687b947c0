package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/tinymark-lang/tinymark-lang.github.io/engine"
	"github.com/tinymark-lang/tinymark-lang.github.io/log"
)

type (
	contextKey struct{}
	inputKey   struct{}
	outputKey  struct{}
)

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// WithInput replaces os.Stdin as the source named "-".
func WithInput(ctx context.Context, r io.Reader) context.Context {
	return context.WithValue(ctx, inputKey{}, r)
}

// WithOutput replaces os.Stdout as the destination of command output.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func input(ctx context.Context) io.Reader {
	if r, ok := ctx.Value(inputKey{}).(io.Reader); ok {
		return r
	}

	return os.Stdin
}

func output(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok {
		return w
	}

	return os.Stdout
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

type source struct {
	name string
	text string
}

// Sources selects the input of commands that accept several sources.
type Sources struct {
	Timeout time.Duration `default:"30s" help:"Timeout for remote sources"`

	Paths []string `arg:"" default:"-" help:"Source files, http(s) URLs, or '-' for stdin" name:"source"`
}

// read loads every source in order. Repeated files, including the same file
// reached through different paths, are read once; stdin is read once and
// placed last.
func (s Sources) read(ctx context.Context) ([]source, error) {
	var (
		out   []source
		seen  []os.FileInfo
		stdin bool
	)

	fetcher := engine.NewHTTPFetcher(s.Timeout)

	for _, path := range s.Paths {
		switch {
		case path == stdinSource:
			stdin = true

		case isRemote(path):
			text, err := fetcher.Fetch(ctx, path)
			if err != nil {
				return nil, ErrReadSource.Wrap(err).With(slog.String("source", path))
			}

			out = append(out, source{name: path, text: text})

		default:
			info, err := os.Stat(path)
			if err != nil {
				return nil, ErrReadSource.Wrap(err).With(slog.String("source", path))
			}

			if sameFile(seen, info) {
				log.Default().DebugContext(ctx, "skipping duplicate source",
					slog.String("source", path))

				continue
			}

			seen = append(seen, info)

			src, err := readFile(path)
			if err != nil {
				return nil, err
			}

			out = append(out, src)
		}
	}

	if stdin {
		src, err := readSource(ctx, stdinSource)
		if err != nil {
			return nil, err
		}

		out = append(out, src)
	}

	return out, nil
}

// readSource reads a single file, or stdin for "-".
func readSource(ctx context.Context, path string) (source, error) {
	if path != stdinSource {
		return readFile(path)
	}

	data, err := io.ReadAll(input(ctx))
	if err != nil {
		return source{}, ErrReadSource.Wrap(err).With(slog.String("source", "stdin"))
	}

	return source{name: "stdin", text: string(data)}, nil
}

func readFile(path string) (source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return source{}, ErrReadSource.Wrap(err).With(slog.String("source", path))
	}

	return source{name: path, text: string(data)}, nil
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func sameFile(seen []os.FileInfo, info os.FileInfo) bool {
	for _, s := range seen {
		if os.SameFile(s, info) {
			return true
		}
	}

	return false
}

// newEngine returns an engine logging to the process logger and acting on
// the terminal's clipboard.
func newEngine(timeout time.Duration) *engine.Engine {
	logger := log.Default()

	return engine.New(
		engine.WithLogger(logger),
		engine.WithHost(host{log: logger}),
		engine.WithFetcher(engine.NewHTTPFetcher(timeout)),
	)
}

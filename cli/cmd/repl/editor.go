package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/tinymark-lang/tinymark-lang.github.io/lang"
	"github.com/tinymark-lang/tinymark-lang.github.io/log"
)

const defaultEditor = "vi"

// editSourceCommand implements [tea.ExecCommand]. It writes the instance
// source to a temporary file, opens the user's editor on it and keeps the
// result. When the edited text produces parse warnings the user may edit
// again or accept it as is.
type editSourceCommand struct {
	source  string
	ctxFunc func() context.Context
	logger  log.Logger

	// edited is nil when the user cleared the file.
	edited *string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editSourceCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editSourceCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editSourceCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop.
func (c *editSourceCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp(os.TempDir(), "tinymark-play-*.tm")
	if err != nil {
		return err
	}

	path := f.Name()

	defer os.Remove(path)

	f.Close()

	content := c.source

	for {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		content = string(data)
		if strings.TrimSpace(content) == "" {
			return nil
		}

		doc := lang.Parse(ctx, content)

		c.logger.TraceContext(ctx, "editor parse attempt",
			slog.Int("content_length", len(content)),
			slog.Int("warnings", len(doc.Warnings)))

		if len(doc.Warnings) == 0 || !c.reedit(doc.Warnings) {
			c.edited = &content

			return nil
		}
	}
}

// reedit reports the warnings and asks whether to open the editor again.
func (c *editSourceCommand) reedit(warnings []error) bool {
	fmt.Fprintln(c.stderr)

	for _, w := range warnings {
		fmt.Fprintf(c.stderr, "warning: %s\n", w)
	}

	fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

	scanner := bufio.NewScanner(c.stdin)
	if !scanner.Scan() {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "n", "no":
		return false
	default:
		return true
	}
}

// runEditor runs $EDITOR, or vi, on path.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}

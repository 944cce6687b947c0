package cmd

import (
	"context"
	"log/slog"

	"github.com/atotto/clipboard"

	"github.com/tinymark-lang/tinymark-lang.github.io/log"
)

// host carries out navigate and copy actions from a terminal. There is no
// page to leave, so navigation is only logged.
type host struct {
	log log.Logger
}

func (h host) Navigate(ctx context.Context, url string) error {
	h.log.InfoContext(ctx, "navigate", slog.String("url", url))

	return nil
}

func (h host) WriteClipboard(ctx context.Context, text string) error {
	if clipboard.Unsupported {
		return ErrClipboard
	}

	if err := clipboard.WriteAll(text); err != nil {
		return ErrClipboard.Wrap(err)
	}

	h.log.DebugContext(ctx, "copied to clipboard", slog.Int("bytes", len(text)))

	return nil
}

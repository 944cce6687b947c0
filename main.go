package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/tinymark-lang/tinymark-lang.github.io/cli"
	"github.com/tinymark-lang/tinymark-lang.github.io/log"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		log.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}
}

package cmd

import "github.com/tinymark-lang/tinymark-lang.github.io/lang"

var (
	ErrReadSource  = lang.NewError("read source")
	ErrRender      = lang.NewError("render source")
	ErrYAMLMarshal = lang.NewError("marshal YAML")
	ErrWriteConfig = lang.NewError("write configuration file")
	ErrFileExists  = lang.NewError("file exists (use --force to overwrite)")
	ErrClipboard   = lang.NewError("clipboard unavailable")
)

package cli

import "github.com/tinymark-lang/tinymark-lang.github.io/lang"

// ErrConfig is reported when the configuration file cannot be decoded.
var ErrConfig = lang.NewError("invalid configuration")

package engine

import "github.com/tinymark-lang/tinymark-lang.github.io/lang"

// Recoverable engine errors. They are logged where they occur and returned
// to the caller of the operation that triggered them; none interrupts a
// render pass.
var (
	ErrUnknownSelector     = lang.NewError("unknown selector")
	ErrUnknownAction       = lang.NewError("unknown action")
	ErrUnknownFunctionKind = lang.NewError("unknown function kind")
	ErrUnresolvedReference = lang.NewError("unresolved reference")
	ErrCapabilityDenied    = lang.NewError("script capability denied")
	ErrFetchFailure        = lang.NewError("fetch failed")
	ErrMaxDepthExceeded    = lang.NewError("maximum call depth exceeded")
	ErrScriptFailure       = lang.NewError("script failed")
	ErrUnknownPreset       = lang.NewError("unknown preset")
	ErrRender              = lang.NewError("render failed")
)

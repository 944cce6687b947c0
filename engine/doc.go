// Package engine renders parsed TinyMark into HTML node trees and runs the
// actions bound to them.
//
// # Rendering
//
// An [Engine] owns a [Registry] of named definitions and any number of
// [Instance] values, each rendering its own source into its own root node.
// Rendering resolves selectors to element kinds, applies style attributes
// in a fixed order, and groups elements into the open list or row:
//
//	.row
//	.t "wrapped in a flex item"
//	.col
//	.t "placed in the column"
//
// Definitions (.extend, .component, .hide and function-bearing .id
// elements) are registered before any element of the pass is resolved, so
// their order in the source does not matter.
//
// # Actions
//
// Action strings are bound with function:onclick(...), function:onload(...)
// or the bare onclick: and onload: attributes:
//
//	call:show:ID      render the hidden block ID into its placeholder
//	call:hide:ID      empty and hide the placeholder
//	call:toggle:ID    show or hide, depending on the placeholder's state
//	call:ID           run the function ID
//	js:CODE           evaluate CODE; requires [WithAllowScript]
//	navigate=URL      ask the [Host] to navigate
//	copy=REF          copy the text of element REF to the clipboard
//	toggleclass=REF,C toggle class C on element REF
//	sort=REF[,desc]   sort the children of element REF by text
//	modal=REF         wrap or unwrap element REF in a modal overlay
//
// # Concurrency
//
// An Engine is driven by one goroutine. Onload actions and remote fetch
// completions are queued on the engine's [Loop], which the owner drains
// with [Loop.Drain] or [Loop.Run].
package engine

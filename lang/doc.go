// Package lang parses TinyMark source into a sequence of nodes.
//
// TinyMark is line oriented. Each non-blank line is one of
//
//	# comment
//	// comment
//	.selector "inline text" key:value key:"quoted value"
//	plain text
//
// plus the directives that span or structure lines:
//
//	.id "menu" function:oncall(
//	    call:show:panel
//	)
//
//	.hide id:panel
//	.t "revealed later"
//	.endhide
//	.placeholder id:panel
//
//	.extend danger color:white bg:#c00
//	.component badge
//	.span "new" use:danger
//	.endcomponent
//
// [Parse] never fails. Malformed lines are dropped, unterminated function
// bodies and hide regions are captured to the end of input, and each
// recovery is reported in [Document.Warnings] as one of [ErrMalformedLine],
// [ErrMalformedFunctionBody] or [ErrUnterminatedHideBlock].
package lang

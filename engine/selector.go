package engine

import (
	"maps"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
)

// ElementKind is the output category a selector resolves to.
type ElementKind int

const (
	KindUnknown ElementKind = iota
	KindHeading
	KindParagraph
	KindLink
	KindButton
	KindImage
	KindVideo
	KindAudio
	KindList
	KindOrderedList
	KindItem
	KindInput
	KindCheckbox
	KindTextarea
	KindSelect
	KindLabel
	KindRule
	KindBreak
	KindRow
	KindColumn
	KindCard
	KindBox
	KindCenter
	KindSpan
	KindBold
	KindItalic
	KindSmall
	KindCode
	// KindID is the .id directive; it renders only a placeholder.
	KindID
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindHeading:     "heading",
	KindParagraph:   "paragraph",
	KindLink:        "link",
	KindButton:      "button",
	KindImage:       "image",
	KindVideo:       "video",
	KindAudio:       "audio",
	KindList:        "list",
	KindOrderedList: "ordered-list",
	KindItem:        "item",
	KindInput:       "input",
	KindCheckbox:    "checkbox",
	KindTextarea:    "textarea",
	KindSelect:      "select",
	KindLabel:       "label",
	KindRule:        "rule",
	KindBreak:       "break",
	KindRow:         "row",
	KindColumn:      "column",
	KindCard:        "card",
	KindBox:         "box",
	KindCenter:      "center",
	KindSpan:        "span",
	KindBold:        "bold",
	KindItalic:      "italic",
	KindSmall:       "small",
	KindCode:        "code",
	KindID:          "id",
}

func (k ElementKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "unknown"
}

var selectors = map[string]ElementKind{
	"h1":        KindHeading,
	"h2":        KindHeading,
	"h3":        KindHeading,
	"h4":        KindHeading,
	"h5":        KindHeading,
	"h6":        KindHeading,
	"t":         KindParagraph,
	"p":         KindParagraph,
	"text":      KindParagraph,
	"link":      KindLink,
	"a":         KindLink,
	"btn":       KindButton,
	"button":    KindButton,
	"img":       KindImage,
	"image":     KindImage,
	"video":     KindVideo,
	"audio":     KindAudio,
	"list":      KindList,
	"ul":        KindList,
	"ol":        KindOrderedList,
	"li":        KindItem,
	"item":      KindItem,
	"input":     KindInput,
	"checkbox":  KindCheckbox,
	"textarea":  KindTextarea,
	"select":    KindSelect,
	"label":     KindLabel,
	"hr":        KindRule,
	"line":      KindRule,
	"br":        KindBreak,
	"row":       KindRow,
	"col":       KindColumn,
	"column":    KindColumn,
	"card":      KindCard,
	"box":       KindBox,
	"div":       KindBox,
	"section":   KindBox,
	"container": KindBox,
	"center":    KindCenter,
	"span":      KindSpan,
	"b":         KindBold,
	"bold":      KindBold,
	"i":         KindItalic,
	"italic":    KindItalic,
	"small":     KindSmall,
	"code":      KindCode,
	"id":        KindID,
}

// Selectors returns every selector with a built-in meaning, sorted.
func Selectors() []string { return slices.Sorted(maps.Keys(selectors)) }

// LookupKind resolves a selector. Unknown selectors yield [KindUnknown].
func LookupKind(selector string) ElementKind {
	return selectors[strings.ToLower(selector)]
}

// tag returns the HTML element name of the node built for kind.
func (k ElementKind) tag(selector string) string {
	switch k {
	case KindHeading:
		return strings.ToLower(selector)
	case KindParagraph:
		return "p"
	case KindLink:
		return "a"
	case KindButton:
		return "button"
	case KindImage:
		return "img"
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindList:
		return "ul"
	case KindOrderedList:
		return "ol"
	case KindItem:
		return "li"
	case KindInput, KindCheckbox:
		return "input"
	case KindTextarea:
		return "textarea"
	case KindSelect:
		return "select"
	case KindLabel:
		return "label"
	case KindRule:
		return "hr"
	case KindBreak:
		return "br"
	case KindSpan:
		return "span"
	case KindBold:
		return "strong"
	case KindItalic:
		return "em"
	case KindSmall:
		return "small"
	case KindCode:
		return "pre"
	case KindBox:
		if strings.EqualFold(selector, "section") {
			return "section"
		}

		return "div"
	default:
		return "div"
	}
}

// suggest returns the closest candidate to word, or "".
func suggest(word string, candidates []string) string {
	matches := fuzzy.Find(word, candidates)
	if len(matches) == 0 {
		return ""
	}

	return matches[0].Str
}

package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/tinymark-lang/tinymark-lang.github.io/engine"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "source", "html", "edit", "clear", "quit"}

// blockVerbs prefix the id of a hidden block.
var blockVerbs = []string{"call:show:", "call:hide:", "call:toggle:"}

// isWordBoundary reports whether r separates completion words. Colons are
// part of a word so that "call:show:menu" completes as one candidate.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', ';', ',', '=':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input. Returns an empty word when the cursor sits on a
// boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// refVerb returns the host verb whose argument list the word at wordStart
// belongs to, e.g. "toggleclass" for "toggleclass=menu,op". Returns "" when
// the word starts a statement.
func refVerb(input string, wordStart int) string {
	stmt := input[:wordStart]
	if i := strings.LastIndexAny(stmt, " \t;"); i >= 0 {
		stmt = stmt[i+1:]
	}

	verb, _, ok := strings.Cut(stmt, "=")
	if !ok {
		return ""
	}

	return strings.ToLower(verb)
}

// actionCandidates returns the completions for a word. At the start of a
// statement these are the verbs and every verb applied to a registered id;
// after a reference verb they are the element ids of the instance.
func actionCandidates(reg *engine.Registry, elementIDs []string, verb string) []string {
	switch verb {
	case "":
	case "navigate":
		return nil
	default:
		return elementIDs
	}

	names := engine.Verbs()

	for _, id := range reg.IDs() {
		if _, ok := reg.Hidden(id); ok {
			for _, v := range blockVerbs {
				names = append(names, v+id)
			}
		}

		if _, ok := reg.Function(id); ok {
			names = append(names, "call:"+id)
		}
	}

	return names
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. An empty word at the start of a statement yields no matches so
// the hint stays visible; after a reference verb it lists every element id.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, wordStart, wordEnd := wordBounds(input, cursor)

	if m.mode == modeCtrl {
		if word == "" {
			return nil, nil, wordStart, wordEnd
		}

		candidates = ctrlCommands
	} else {
		verb := refVerb(input, wordStart)
		candidates = actionCandidates(m.engine.Registry(), m.inst.ElementIDs(), verb)

		if word == "" {
			if verb == "" || len(candidates) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. The selected candidate (when tabbing) uses
// the selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matchSet[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	return b.String()
}

// Package classify decides what an inbound message text is: a single
// reaction, a batch of emoji reactions, a command-prefixed custom reaction,
// an anonymous-post directive, or an ordinary message.
package classify

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/forPelevin/gomoji"
)

const lennyFace = "( ͡° ͜ʖ ͡°)"

// DefaultMaxTokens caps how many emoji one message may carry to still count
// as a multi-reaction.
const DefaultMaxTokens = 3

// textualNormalization maps case-folded input to its canonical reaction
// token. Lookup happens once, before classification.
var textualNormalization = map[string]string{
	"xd":     "xD",
	"rigcz":  "RiGCz",
	"rel":    "rel",
	"rak":    "rak",
	"<3":     "❤️",
	"lenny":  lennyFace,
	"nierel": "nierel",
	"baza:":  "baza",
	"based:": "baza",
}

// textualReactions is the fixed table of recognized non-emoji reactions.
var textualReactions = map[string]struct{}{
	"+1":      {},
	"-1":      {},
	"xD":      {},
	"rel":     {},
	"nierel":  {},
	"RiGCz":   {},
	"rak":     {},
	"baza":    {},
	"lenny":   {},
	lennyFace: {},
}

var (
	customReactionPattern = regexp.MustCompile(`^!(?:r(?:eact)?)\s+(.*)`)
	anonMsgPattern        = regexp.MustCompile(`^!(?:a(?:non)?)\s+((?s).*)`)
)

type Verdict int

const (
	VerdictOrdinary Verdict = iota
	VerdictReaction
	VerdictAnon
)

type Options struct {
	Disallowed        map[string]struct{}
	CustomTextAllowed bool
	AnonAllowed       bool
	MaxTokens         int // 0 means DefaultMaxTokens
}

type Classification struct {
	Verdict  Verdict
	Tokens   []string // distinct reaction tokens, first-seen order
	AnonText string   // remainder of an anonymous-post directive
}

// Normalize case-folds the text against the alias table; unmatched text is
// returned trimmed. The normalized value is used for both classification
// and storage.
func Normalize(raw string) string {
	if canonical, ok := textualNormalization[strings.ToLower(raw)]; ok {
		return canonical
	}
	return strings.TrimSpace(raw)
}

// IsDisallowed reports whether a token may not be used as a reaction: any
// sign-prefixed integer other than +1/-1, plus the configured block-set.
func IsDisallowed(token string, disallowed map[string]struct{}) bool {
	if token == "" {
		return true
	}
	if token[0] == '+' || token[0] == '-' {
		if n, err := strconv.Atoi(token[1:]); err == nil && n != 1 {
			return true
		}
	}
	_, blocked := disallowed[token]
	return blocked
}

// Classify runs the verdict chain on normalized text: anonymous-post
// directive, simple reaction, multi-reaction, custom-text reaction, and
// finally ordinary message. First match wins.
func Classify(text string, opts Options) Classification {
	if opts.AnonAllowed {
		if anon := ExtractAnonText(text); anon != "" {
			return Classification{Verdict: VerdictAnon, AnonText: anon}
		}
	}

	if isSimpleReaction(text, opts) {
		return Classification{Verdict: VerdictReaction, Tokens: []string{text}}
	}

	if tokens, ok := multiReactionTokens(text, opts); ok {
		return Classification{Verdict: VerdictReaction, Tokens: tokens}
	}

	if opts.CustomTextAllowed {
		if custom := extractCustomReaction(text, opts.Disallowed); custom != "" {
			return Classification{Verdict: VerdictReaction, Tokens: []string{custom}}
		}
	}

	return Classification{Verdict: VerdictOrdinary}
}

func isSimpleReaction(text string, opts Options) bool {
	if IsDisallowed(text, opts.Disallowed) {
		return false
	}
	if utf8.RuneCountInString(text) == 1 {
		return true
	}
	if _, ok := textualReactions[text]; ok {
		return true
	}

	found := findEmojis(text)
	return len(found) == 1 && strings.TrimSpace(gomoji.RemoveEmojis(text)) == ""
}

func multiReactionTokens(text string, opts Options) ([]string, bool) {
	found := findEmojis(text)
	for _, tok := range found {
		if IsDisallowed(tok, opts.Disallowed) {
			return nil, false
		}
	}

	limit := opts.MaxTokens
	if limit == 0 {
		limit = DefaultMaxTokens
	}
	if len(found) <= 1 || len(found) > limit {
		return nil, false
	}
	if strings.TrimSpace(gomoji.RemoveEmojis(text)) != "" {
		return nil, false
	}
	return uniqueTokens(found), true
}

func extractCustomReaction(text string, disallowed map[string]struct{}) string {
	m := customReactionPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return ""
	}
	reaction := strings.TrimSpace(m[1])
	if reaction == "" || IsDisallowed(reaction, disallowed) {
		return ""
	}
	return reaction
}

// ExtractAnonText returns the remainder of an `!a <text>` / `!anon <text>`
// directive, or "" when the text is not one.
func ExtractAnonText(text string) string {
	m := anonMsgPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// findEmojis returns every emoji occurrence in order of appearance,
// duplicates included. gomoji.FindAll reports only the distinct set, so the
// string is rescanned for positions.
func findEmojis(s string) []string {
	distinct := gomoji.FindAll(s)
	if len(distinct) == 0 {
		return nil
	}

	var out []string
	for i := 0; i < len(s); {
		matched := ""
		for _, e := range distinct {
			if strings.HasPrefix(s[i:], e.Character) && len(e.Character) > len(matched) {
				matched = e.Character
			}
		}
		if matched != "" {
			out = append(out, matched)
			i += len(matched)
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return out
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

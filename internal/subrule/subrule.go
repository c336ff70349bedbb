package subrule

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ParseError describes why a rule string was rejected, naming the offending
// fragment so operators can fix the configuration.
type ParseError struct {
	Rule     string
	Fragment string
	Reason   string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("malformed rule %q: %s: %q", e.Rule, e.Reason, e.Fragment)
	}
	return fmt.Sprintf("malformed rule %q: %s", e.Rule, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// token is one element of the replacement template: either literal text or a
// back-reference to a capture group. Group 0 marks a literal.
type token struct {
	literal string
	group   int
}

// Rule is a compiled substitution rule. It is immutable and safe for
// concurrent use; Apply is a pure function of the rule and its input.
type Rule struct {
	raw     string
	pattern *regexp.Regexp
	tokens  []token
	global  bool
}

// String returns the original rule text.
func (r *Rule) String() string { return r.raw }

// Parse compiles a rule string. All validation happens here: delimiter
// structure, pattern syntax, back-reference bounds, and flags. A rule that
// parses cleanly can never fail at apply time.
func Parse(rule string) (*Rule, error) {
	runes := []rune(rule)
	if len(runes) < 4 || runes[0] != 's' {
		return nil, &ParseError{Rule: rule, Reason: "rule must have the form s<delim><pattern><delim><replacement><delim>"}
	}

	delim := runes[1]
	if unicode.IsSpace(delim) || unicode.IsLetter(delim) || unicode.IsDigit(delim) || delim == '\\' {
		return nil, &ParseError{Rule: rule, Reason: "invalid delimiter", Fragment: string(delim)}
	}

	segments, err := splitSegments(rule, runes[2:], delim)
	if err != nil {
		return nil, err
	}

	pattern, err := regexp.Compile(segments[0])
	if err != nil {
		return nil, &ParseError{Rule: rule, Reason: "invalid pattern", Fragment: segments[0], Err: err}
	}

	tokens, err := tokenizeReplacement(rule, segments[1], pattern.NumSubexp())
	if err != nil {
		return nil, err
	}

	compiled := &Rule{raw: rule, pattern: pattern, tokens: tokens}
	for _, flag := range segments[2] {
		switch flag {
		case 'g':
			compiled.global = true
		default:
			return nil, &ParseError{Rule: rule, Reason: "unknown flag", Fragment: string(flag)}
		}
	}
	return compiled, nil
}

// splitSegments cuts the body of the rule into pattern, replacement, and
// flags. A backslash before the delimiter escapes it; every other backslash
// pair passes through untouched for the regexp compiler and replacement
// tokenizer to interpret.
func splitSegments(rule string, body []rune, delim rune) ([3]string, error) {
	var segments [3]string
	var current strings.Builder
	seen := 0

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\':
			if i+1 >= len(body) {
				return segments, &ParseError{Rule: rule, Reason: "trailing backslash"}
			}
			next := body[i+1]
			if next == delim {
				current.WriteRune(delim)
			} else {
				current.WriteRune('\\')
				current.WriteRune(next)
			}
			i++
		case c == delim:
			if seen >= 2 {
				return segments, &ParseError{Rule: rule, Reason: "too many delimiters", Fragment: string(delim)}
			}
			segments[seen] = current.String()
			current.Reset()
			seen++
		default:
			current.WriteRune(c)
		}
	}

	if seen != 2 {
		return segments, &ParseError{
			Rule:     rule,
			Reason:   fmt.Sprintf("expected 3 occurrences of delimiter %q, found %d", string(delim), seen+1),
			Fragment: string(delim),
		}
	}
	segments[2] = current.String()
	return segments, nil
}

// tokenizeReplacement builds the literal/back-reference template once, so
// Apply is plain interpretation with no escape handling left to do.
func tokenizeReplacement(rule, replacement string, groups int) ([]token, error) {
	var tokens []token
	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, token{literal: literal.String()})
			literal.Reset()
		}
	}

	runes := []rune(replacement)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '\\' {
			literal.WriteRune(c)
			continue
		}
		if i+1 >= len(runes) {
			return nil, &ParseError{Rule: rule, Reason: "trailing backslash in replacement"}
		}
		next := runes[i+1]
		i++
		switch {
		case next >= '1' && next <= '9':
			group := int(next - '0')
			if group > groups {
				return nil, &ParseError{
					Rule:     rule,
					Reason:   fmt.Sprintf("back-reference to group %d but pattern has %d", group, groups),
					Fragment: `\` + string(next),
				}
			}
			flush()
			tokens = append(tokens, token{group: group})
		case next == '\\':
			literal.WriteRune('\\')
		case next == '0':
			return nil, &ParseError{Rule: rule, Reason: "back-reference to group 0 is not supported", Fragment: `\0`}
		default:
			literal.WriteRune(next)
		}
	}
	flush()
	return tokens, nil
}

// Apply runs the rule against candidate. When the pattern does not match the
// input is returned unchanged.
func (r *Rule) Apply(candidate string) string {
	if r.global {
		return r.applyAll(candidate)
	}
	m := r.pattern.FindStringSubmatchIndex(candidate)
	if m == nil {
		return candidate
	}
	var b strings.Builder
	b.WriteString(candidate[:m[0]])
	r.expand(&b, candidate, m)
	b.WriteString(candidate[m[1]:])
	return b.String()
}

// Matches reports whether the rule's pattern matches candidate at all.
func (r *Rule) Matches(candidate string) bool {
	return r.pattern.MatchString(candidate)
}

func (r *Rule) applyAll(candidate string) string {
	matches := r.pattern.FindAllStringSubmatchIndex(candidate, -1)
	if len(matches) == 0 {
		return candidate
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(candidate[last:m[0]])
		r.expand(&b, candidate, m)
		last = m[1]
	}
	b.WriteString(candidate[last:])
	return b.String()
}

func (r *Rule) expand(b *strings.Builder, candidate string, m []int) {
	for _, t := range r.tokens {
		if t.group == 0 {
			b.WriteString(t.literal)
			continue
		}
		lo, hi := m[2*t.group], m[2*t.group+1]
		if lo >= 0 {
			b.WriteString(candidate[lo:hi])
		}
	}
}

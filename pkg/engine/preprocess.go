package engine

import "strings"

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites cost-function source into something zygomys
// accepts:
//
//  1. ";" line comments become "//" comments.
//  2. :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbol registration.
//  3. kebab-case identifiers become snake_case (less-equal -> less_equal),
//     since zygomys reads a hyphen as subtraction.
//
// String literals (double-quoted and backtick) pass through untouched.
func preprocessSource(source string) string {
	p := preprocessor{src: source}
	p.out.Grow(len(source) + len(source)/4)
	for p.i < len(p.src) {
		p.step()
	}
	return p.out.String()
}

type preprocessor struct {
	src string
	i   int
	out strings.Builder
}

func (p *preprocessor) step() {
	c := p.src[p.i]
	switch {
	case c == '"':
		p.copyQuoted('"', true)
	case c == '`':
		p.copyQuoted('`', false)
	case c == ';':
		p.comment()
	case c == ':' && p.i+1 < len(p.src) && p.src[p.i+1] == '=':
		p.out.WriteString(":=")
		p.i += 2
	case c == ':' && p.i+1 < len(p.src) && isLetter(p.src[p.i+1]):
		p.keyword()
	case c == '-' && p.i > 0 && p.i+1 < len(p.src) &&
		isIdentChar(p.src[p.i-1]) && isLetter(p.src[p.i+1]):
		p.out.WriteByte('_')
		p.i++
	default:
		p.out.WriteByte(c)
		p.i++
	}
}

// copyQuoted copies a literal delimited by quote, honouring backslash
// escapes when escapes is set.
func (p *preprocessor) copyQuoted(quote byte, escapes bool) {
	p.out.WriteByte(quote)
	p.i++
	for p.i < len(p.src) && p.src[p.i] != quote {
		if escapes && p.src[p.i] == '\\' && p.i+1 < len(p.src) {
			p.out.WriteString(p.src[p.i : p.i+2])
			p.i += 2
			continue
		}
		p.out.WriteByte(p.src[p.i])
		p.i++
	}
	if p.i < len(p.src) {
		p.out.WriteByte(quote)
		p.i++
	}
}

func (p *preprocessor) comment() {
	p.out.WriteString("//")
	for p.i < len(p.src) && p.src[p.i] == ';' {
		p.i++
	}
	for p.i < len(p.src) && p.src[p.i] != '\n' {
		p.out.WriteByte(p.src[p.i])
		p.i++
	}
}

func (p *preprocessor) keyword() {
	j := p.i + 1
	for j < len(p.src) && isKWChar(p.src[j]) {
		j++
	}
	p.out.WriteString(`"` + kwPrefix + p.src[p.i+1:j] + `"`)
	p.i = j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

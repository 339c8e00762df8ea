package jsast

// CallSite is one `<identifier>(...)` call expression found in source,
// byte-position-accurate so pass 2 can splice a replacement in place
// without disturbing anything else.
type CallSite struct {
	Callee     string
	CalleeSpan Span
	// Span covers the whole call expression, from the first byte of the
	// callee identifier through the closing ')' inclusive.
	Span Span
	Args []Span
}

// FindCalls scans src for call expressions whose callee is a bare
// identifier (not a member expression like `obj.preview(...)`, which
// spec.md's "callee identifier resolves to one of these symbols" rule
// excludes by construction — only a plain imported binding can resolve).
// The argument list of each call it reports is skipped as a whole, so a
// call nested inside it is not reported: neither `preview` in
// `wrap(preview("a.png"))` nor one inside `return (...)`, which scans as
// a call to `return`.
func FindCalls(src string) []CallSite {
	var out []CallSite
	c := newCursor(src)
	prevNonSpace := byte(0)
	for !c.eof() {
		b := c.byteAt(0)
		switch {
		case b == '"' || b == '\'' || b == '`':
			c.skipStringLiteral()
			prevNonSpace = '"'
			continue
		case b == '/' && c.byteAt(1) == '/':
			for !c.eof() && c.byteAt(0) != '\n' {
				c.pos++
			}
			continue
		case b == '/' && c.byteAt(1) == '*':
			c.pos += 2
			for !c.eof() && !(c.byteAt(0) == '*' && c.byteAt(1) == '/') {
				c.pos++
			}
			if !c.eof() {
				c.pos += 2
			}
			continue
		case isIdentStart(b):
			identStart := c.pos
			name, calleeSpan := c.scanIdentifier()
			afterIdentPos := c.pos
			skipInlineSpace(c)
			if !c.eof() && c.byteAt(0) == '(' && prevNonSpace != '.' {
				parenStart := c.pos
				c.pos++
				c.skipBalanced('(', ')')
				callEnd := c.pos
				args := splitTopLevelArgs(src, Span{parenStart + 1, callEnd - 1})
				out = append(out, CallSite{
					Callee:     name,
					CalleeSpan: calleeSpan,
					Span:       Span{identStart, callEnd},
					Args:       args,
				})
				prevNonSpace = ')'
				continue
			}
			c.pos = afterIdentPos
			prevNonSpace = 0
			if len(name) > 0 {
				prevNonSpace = name[len(name)-1]
			}
			continue
		case isSpace(b):
			c.pos++
			continue
		default:
			prevNonSpace = b
			c.pos++
		}
	}
	return out
}

func skipInlineSpace(c *cursor) {
	for !c.eof() {
		b := c.byteAt(0)
		if b == ' ' || b == '\t' {
			c.pos++
			continue
		}
		break
	}
}

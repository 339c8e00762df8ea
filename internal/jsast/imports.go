package jsast

import "strings"

// ImportBinding records that the local name LocalName refers to the
// export ImportedName of a module imported from Specifier — e.g. for
// `import { preview as p } from "nocojs/client"`, LocalName is "p",
// ImportedName is "preview", Specifier is "nocojs/client".
type ImportBinding struct {
	LocalName    string
	ImportedName string
	Specifier    string
}

// FindImportBindings walks every `import { ... } from "..."` declaration
// at the top level of src and returns the bindings that import
// wantExport from wantSpecifier, including renamed-on-import forms, per
// spec.md §4.5 "Target identification".
func FindImportBindings(src, wantSpecifier, wantExport string) []ImportBinding {
	var out []ImportBinding
	c := newCursor(src)
	for !c.eof() {
		c.skipTrivia()
		if c.eof() {
			break
		}
		if !strings.HasPrefix(c.src[c.pos:], "import") {
			// Not an import keyword at this position; advance past one
			// token/char and keep scanning for the next "import".
			advancePastToken(c)
			continue
		}
		// Ensure "import" is a whole identifier, not a prefix of another.
		after := c.pos + len("import")
		if after < len(c.src) && isIdentPart(c.src[after]) {
			advancePastToken(c)
			continue
		}
		decl, ok := parseImportDeclaration(c)
		if !ok {
			continue
		}
		if decl.specifier != wantSpecifier {
			continue
		}
		for _, spec := range decl.named {
			if spec.imported == wantExport {
				out = append(out, ImportBinding{
					LocalName:    spec.local,
					ImportedName: spec.imported,
					Specifier:    decl.specifier,
				})
			}
		}
	}
	return out
}

type namedSpecifier struct {
	imported string
	local    string
}

type importDeclaration struct {
	named     []namedSpecifier
	specifier string
}

// parseImportDeclaration parses starting at "import" and consumes up to
// and including the module specifier's closing quote; a trailing ';' is
// left for the caller's scan loop. Returns ok=false if
// the statement isn't a recognizable `import { ... } from "..."` form
// (e.g. a bare `import "./x"` or a default/namespace import), in which
// case the cursor is left advanced past the "import" keyword so the
// caller's scan loop makes progress.
func parseImportDeclaration(c *cursor) (importDeclaration, bool) {
	c.pos += len("import")
	c.skipTrivia()
	if c.eof() || c.byteAt(0) != '{' {
		return importDeclaration{}, false
	}
	braceStart := c.pos
	c.pos++
	c.skipBalanced('{', '}')
	braceEnd := c.pos // just past the closing '}'
	namedSrc := c.src[braceStart+1 : braceEnd-1]

	c.skipTrivia()
	if !strings.HasPrefix(c.src[c.pos:], "from") {
		return importDeclaration{}, false
	}
	c.pos += len("from")
	c.skipTrivia()
	if c.eof() || (c.byteAt(0) != '"' && c.byteAt(0) != '\'') {
		return importDeclaration{}, false
	}
	quoteStart := c.pos
	c.skipStringLiteral()
	specifier, ok := unquote(c.src[quoteStart:c.pos])
	if !ok {
		return importDeclaration{}, false
	}

	decl := importDeclaration{specifier: specifier, named: parseNamedSpecifiers(namedSrc)}
	return decl, true
}

// parseNamedSpecifiers parses the comma-separated contents of an
// import's `{ ... }` clause: `foo`, `foo as bar`, ignoring a leading
// `type` modifier (TS type-only imports are never preview bindings).
func parseNamedSpecifiers(src string) []namedSpecifier {
	var out []namedSpecifier
	for _, part := range strings.Split(src, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.TrimPrefix(part, "type ")
		part = strings.TrimSpace(part)
		fields := strings.Fields(part)
		switch {
		case len(fields) == 1:
			out = append(out, namedSpecifier{imported: fields[0], local: fields[0]})
		case len(fields) == 3 && fields[1] == "as":
			out = append(out, namedSpecifier{imported: fields[0], local: fields[2]})
		}
	}
	return out
}

// advancePastToken skips one identifier, string literal, or single
// character so the outer scan loop always makes forward progress.
func advancePastToken(c *cursor) {
	b := c.byteAt(0)
	switch {
	case isIdentStart(b):
		c.scanIdentifier()
	case b == '"' || b == '\'' || b == '`':
		c.skipStringLiteral()
	default:
		c.pos++
	}
}

package jsast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindImportBindingsPlainAndRenamed(t *testing.T) {
	src := `
import { preview } from "nocojs/client";
import { preview as p } from "nocojs/client";
import { preview } from "other/module";
import preview from "nocojs/client";
`
	bindings := FindImportBindings(src, "nocojs/client", "preview")
	require.Len(t, bindings, 2)
	assert.Equal(t, "preview", bindings[0].LocalName)
	assert.Equal(t, "p", bindings[1].LocalName)
}

func TestFindCallsExcludesMemberExpressions(t *testing.T) {
	src := `preview("a.png"); obj.preview("b.png"); p("c.png", { width: 8 });`
	calls := FindCalls(src)
	require.Len(t, calls, 2)
	assert.Equal(t, "preview", calls[0].Callee)
	assert.Equal(t, "p", calls[1].Callee)
	require.Len(t, calls[1].Args, 2)
}

func TestParseStringLiteralRejectsNonString(t *testing.T) {
	src := `preview(someVariable)`
	calls := FindCalls(src)
	require.Len(t, calls, 1)
	_, ok := ParseStringLiteral(src, calls[0].Args[0])
	assert.False(t, ok)
}

func TestParseStringLiteralDecodesEscapes(t *testing.T) {
	src := `preview("a\nb")`
	calls := FindCalls(src)
	require.Len(t, calls, 1)
	v, ok := ParseStringLiteral(src, calls[0].Args[0])
	require.True(t, ok)
	assert.Equal(t, "a\nb", v)
}

func TestObjectPropertiesParsesScalarKeys(t *testing.T) {
	src := `preview("a.png", { width: 8, height: 10, placeholderType: "blurred", cache: false, wrapWithSvg: true })`
	calls := FindCalls(src)
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Args, 2)

	props := ObjectProperties(src, calls[0].Args[1])
	require.Contains(t, props, "width")
	require.Contains(t, props, "placeholderType")

	widthLit := ParseLiteral(src, props["width"])
	assert.Equal(t, LiteralNumber, widthLit.Kind)
	assert.Equal(t, float64(8), widthLit.Number)

	kindLit := ParseLiteral(src, props["placeholderType"])
	assert.Equal(t, LiteralString, kindLit.Kind)
	assert.Equal(t, "blurred", kindLit.String)

	cacheLit := ParseLiteral(src, props["cache"])
	assert.Equal(t, LiteralBool, cacheLit.Kind)
	assert.False(t, cacheLit.Bool)
}

func TestParseLiteralNonLiteralIsNone(t *testing.T) {
	src := `preview("a.png", { width: someVar() })`
	calls := FindCalls(src)
	props := ObjectProperties(src, calls[0].Args[1])
	lit := ParseLiteral(src, props["width"])
	assert.Equal(t, LiteralNone, lit.Kind)
}

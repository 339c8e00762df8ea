// Package options holds the RenderOptions/OutputKind data model shared
// by every component downstream of the Transform Engine, per spec.md §3.
package options

import "fmt"

// OutputKind is one of the six placeholder rendering modes (spec.md §3).
type OutputKind int

const (
	Normal OutputKind = iota
	Blurred
	Grayscale
	DominantColor
	AverageColor
	Transparent
)

// outputKindNames is the stable lowercase-hyphenated persistence token
// for each OutputKind, in both directions. The mapping is a contract:
// changing it would silently invalidate every persisted cache row.
var outputKindNames = [...]string{
	Normal:        "normal",
	Blurred:       "blurred",
	Grayscale:     "grayscale",
	DominantColor: "dominant-color",
	AverageColor:  "average-color",
	Transparent:   "transparent",
}

func (k OutputKind) String() string {
	if int(k) < 0 || int(k) >= len(outputKindNames) {
		return outputKindNames[Normal]
	}
	return outputKindNames[k]
}

// ParseOutputKind maps a persistence token (or a call-site
// `placeholderType` string) back to an OutputKind. Unknown names fall
// back to Normal, matching the Rust original's
// get_placeholder_enum_value_from_string.
func ParseOutputKind(name string) OutputKind {
	for k, n := range outputKindNames {
		if n == name {
			return OutputKind(k)
		}
	}
	return Normal
}

// RenderOptions is the fully-resolved request shape for one placeholder,
// after merging call-site options over the transform's global defaults
// (spec.md §3).
type RenderOptions struct {
	Width               *uint32
	Height              *uint32
	OutputKind          OutputKind
	Cache               bool
	WrapWithSVG         bool
	ReplaceFunctionCall bool
}

// CacheKey is the canonical equivalence token for "same rendering of
// same URL": a pure function of OutputKind/Width/Height only — Cache,
// WrapWithSVG and ReplaceFunctionCall affect delivery, not the stored
// pixels (spec.md §3, §9).
func CacheKey(o RenderOptions) string {
	w, h := uint32(0), uint32(0)
	if o.Width != nil {
		w = *o.Width
	}
	if o.Height != nil {
		h = *o.Height
	}
	return fmt.Sprintf("%s_%d_%d", o.OutputKind, w, h)
}

// Uint32Ptr is a small constructor helper used throughout call sites
// that need to build a RenderOptions from optional numbers.
func Uint32Ptr(v uint32) *uint32 { return &v }

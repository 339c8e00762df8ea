// Package nocojs is the public entry point (component E, spec.md §4.5):
// Transform parses one source module, runs the two-pass
// discover/spawn/barrier/rewrite protocol over every `preview(url,
// options?)` call site, and hands back rewritten code plus the logs
// collected along the way. GetPlaceholder exposes the same pipeline for
// a single URL outside of any source file, for tooling/CLI use.
package nocojs

import (
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/akzhy/nocojs/internal/cachedb"
	"github.com/akzhy/nocojs/internal/jsast"
	"github.com/akzhy/nocojs/internal/loader"
	"github.com/akzhy/nocojs/internal/logx"
	"github.com/akzhy/nocojs/internal/options"
	"github.com/akzhy/nocojs/internal/placeholder"
	"github.com/akzhy/nocojs/internal/store"
)

// ClientModuleSpecifier is the fixed import specifier string whose
// presence marks target imports (spec.md §4.5 "Target identification",
// §6 "Client-module identifier").
const ClientModuleSpecifier = "nocojs/client"

// DefaultCacheFileDir is the default value of TransformOptions.CacheFileDir
// (spec.md §6).
const DefaultCacheFileDir = ".nocojs"

// TransformOptions carries the global RenderOptions defaults plus the
// engine configuration for one Transform call (spec.md §6).
type TransformOptions struct {
	PlaceholderType     options.OutputKind
	ReplaceFunctionCall bool
	Cache               bool
	PublicDir           string
	CacheFileDir        string
	LogLevel            *logx.Level
	Width               *uint32
	Height              *uint32
	SourcemapFilePath   string
	WrapWithSVG         bool
}

func (o TransformOptions) renderOptions() options.RenderOptions {
	return options.RenderOptions{
		Width:               o.Width,
		Height:               o.Height,
		OutputKind:          o.PlaceholderType,
		Cache:               o.Cache,
		WrapWithSVG:         o.WrapWithSVG,
		ReplaceFunctionCall: o.ReplaceFunctionCall,
	}
}

func (o TransformOptions) cacheDir() string {
	if o.CacheFileDir == "" {
		return DefaultCacheFileDir
	}
	return o.CacheFileDir
}

// LogEntry is one collected log line (spec.md §6 "TransformOutput").
type LogEntry struct {
	Message string
	Level   string
}

// TransformOutput is Transform's successful result. A nil TransformOutput
// (with nil error) means the source did not import the client module and
// the caller should emit the original code unchanged (spec.md §6).
type TransformOutput struct {
	Code      string
	Sourcemap string
	Logs      []LogEntry
}

// Transform implements the two-pass engine described in spec.md §4.5.
func Transform(code, filePath string, opts TransformOptions) (*TransformOutput, error) {
	if opts.LogLevel != nil {
		logx.SetLevel(*opts.LogLevel)
	}
	if !strings.Contains(code, ClientModuleSpecifier) {
		return nil, nil
	}

	sess := logx.NewSession()
	bindings := jsast.FindImportBindings(code, ClientModuleSpecifier, "preview")
	if len(bindings) == 0 {
		return nil, nil
	}
	localNames := make(map[string]bool, len(bindings))
	for _, b := range bindings {
		localNames[b.LocalName] = true
	}

	db, err := cachedb.Open(opts.cacheDir())
	var st *store.Store
	if err != nil {
		sess.Log(logx.LevelError, "failed to open persistent cache: %v", err)
		st = store.New()
	} else {
		defer db.Close()
		rows, err := db.SelectAll()
		if err != nil {
			sess.Log(logx.LevelError, "failed to load persistent cache: %v", err)
			st = store.New()
		} else {
			st = store.New()
			st.LoadFrom(rows)
		}
	}

	ld := loader.New(opts.PublicDir)

	calls := jsast.FindCalls(code)
	type target struct {
		call jsast.CallSite
		url  string
		ro   options.RenderOptions
	}
	targets := make([]target, 0, len(calls))

	hasChanges := false
	var g errgroup.Group
	for _, call := range calls {
		if !localNames[call.Callee] || len(call.Args) == 0 {
			continue
		}
		url, ok := jsast.ParseStringLiteral(code, call.Args[0])
		if !ok {
			sess.Log(logx.LevelError, "preview() first argument must be a string literal: %s", call.Span.Text(code))
			continue
		}
		ro := opts.renderOptions()
		if len(call.Args) > 1 {
			applyCallOptions(code, call.Args[1], &ro)
		}
		hasChanges = true

		targets = append(targets, target{call: call, url: url, ro: ro})

		if st.Has(url, ro) {
			sess.Log(logx.LevelInfo, "cache hit: %s", url)
			continue
		}
		g.Go(func() error {
			data, err := ld.Load(url)
			if err != nil {
				sess.Log(logx.LevelError, "%v", err)
				return nil
			}
			result, err := placeholder.Build(data, url, ro)
			if err != nil {
				sess.Log(logx.LevelError, "%v", err)
				return nil
			}
			st.Put(url, result.DataURL, result.OriginalWidth, result.OriginalHeight, ro)
			return nil
		})
	}

	if hasChanges {
		_ = g.Wait() // barrier: child tasks are failure-tolerant, never abort the group
	}

	if db != nil && st.Dirty() {
		inserts, updates := st.DrainDirty()
		if err := db.Flush(inserts, updates); err != nil {
			sess.Log(logx.LevelError, "failed to flush persistent cache: %v", err)
		}
	}

	var b strings.Builder
	cursor := 0
	for _, t := range targets {
		rec, ok := st.Get(t.url, t.ro)
		if !ok {
			continue
		}
		placeholderURL := placeholder.WrapOriginal(
			rec.Placeholder, t.ro.OutputKind, t.ro.WrapWithSVG,
			rec.OriginalWidth, rec.OriginalHeight, rec.OriginalWidth, rec.OriginalHeight,
		)
		b.WriteString(code[cursor:t.call.Span.Start])
		if t.ro.ReplaceFunctionCall {
			b.WriteString(quoteJS(placeholderURL))
		} else {
			b.WriteString(code[t.call.Span.Start:t.call.Args[0].Start])
			b.WriteString(quoteJS(placeholderURL))
			b.WriteString(code[t.call.Args[0].End:t.call.Span.End])
		}
		cursor = t.call.Span.End
	}
	b.WriteString(code[cursor:])

	out := &TransformOutput{Code: b.String()}
	for _, e := range sess.Drain() {
		out.Logs = append(out.Logs, LogEntry{Message: e.Message, Level: e.Level})
	}
	if opts.SourcemapFilePath != "" {
		out.Sourcemap = fmt.Sprintf(`{"version":3,"file":%s,"sources":[%s],"mappings":""}`, quoteJS(opts.SourcemapFilePath), quoteJS(filePath))
	}
	return out, nil
}

// applyCallOptions merges the recognized call-site option keys (spec.md
// §4.5 step 1, §6 "Recognized call-site option keys") over ro's
// already-populated global defaults. Unknown keys and type mismatches
// are silently ignored, leaving that field at its default.
func applyCallOptions(src string, objSpan jsast.Span, ro *options.RenderOptions) {
	props := jsast.ObjectProperties(src, objSpan)
	if v, ok := props["width"]; ok {
		if lit := jsast.ParseLiteral(src, v); lit.Kind == jsast.LiteralNumber {
			ro.Width = options.Uint32Ptr(uint32(lit.Number))
		}
	}
	if v, ok := props["height"]; ok {
		if lit := jsast.ParseLiteral(src, v); lit.Kind == jsast.LiteralNumber {
			ro.Height = options.Uint32Ptr(uint32(lit.Number))
		}
	}
	if v, ok := props["placeholderType"]; ok {
		if lit := jsast.ParseLiteral(src, v); lit.Kind == jsast.LiteralString {
			ro.OutputKind = options.ParseOutputKind(lit.String)
		}
	}
	if v, ok := props["replaceFunctionCall"]; ok {
		if lit := jsast.ParseLiteral(src, v); lit.Kind == jsast.LiteralBool {
			ro.ReplaceFunctionCall = lit.Bool
		}
	}
	if v, ok := props["cache"]; ok {
		if lit := jsast.ParseLiteral(src, v); lit.Kind == jsast.LiteralBool {
			ro.Cache = lit.Bool
		}
	}
	if v, ok := props["wrapWithSvg"]; ok {
		if lit := jsast.ParseLiteral(src, v); lit.Kind == jsast.LiteralBool {
			ro.WrapWithSVG = lit.Bool
		}
	}
}

func quoteJS(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// GetPlaceholderOptions configures the standalone single-URL entry
// point (spec.md §6 "Standalone placeholder entry").
type GetPlaceholderOptions struct {
	PlaceholderType options.OutputKind
	Cache           bool
	PublicDir       string
	CacheFileDir    string
	LogLevel        *logx.Level
	Width           *uint32
	Height          *uint32
	WrapWithSVG     bool
}

// GetPlaceholderOutput is GetPlaceholder's result.
type GetPlaceholderOutput struct {
	Placeholder string
	Logs        []LogEntry
	IsError     bool
}

// GetPlaceholder renders (or fetches from cache) a single URL's
// placeholder, sharing the persistent database with Transform
// (spec.md §6).
func GetPlaceholder(url string, opts GetPlaceholderOptions) *GetPlaceholderOutput {
	if opts.LogLevel != nil {
		logx.SetLevel(*opts.LogLevel)
	}
	sess := logx.NewSession()
	publicDir := opts.PublicDir
	if publicDir == "" {
		publicDir = "public"
	}
	cacheDir := opts.CacheFileDir
	if cacheDir == "" {
		cacheDir = DefaultCacheFileDir
	}

	ro := options.RenderOptions{
		Width:       opts.Width,
		Height:      opts.Height,
		OutputKind:  opts.PlaceholderType,
		Cache:       opts.Cache,
		WrapWithSVG: opts.WrapWithSVG,
	}

	db, err := cachedb.Open(cacheDir)
	st := store.New()
	if err != nil {
		sess.Log(logx.LevelError, "failed to open persistent cache: %v", err)
	} else {
		defer db.Close()
		if rows, err := db.SelectAll(); err == nil {
			st.LoadFrom(rows)
		} else {
			sess.Log(logx.LevelError, "failed to load persistent cache: %v", err)
		}
	}

	out := &GetPlaceholderOutput{}
	if rec, ok := st.Get(url, ro); ok {
		sess.Log(logx.LevelInfo, "cache hit: %s", url)
		out.Placeholder = placeholder.WrapOriginal(rec.Placeholder, ro.OutputKind, ro.WrapWithSVG, rec.OriginalWidth, rec.OriginalHeight, rec.OriginalWidth, rec.OriginalHeight)
	} else {
		ld := loader.New(publicDir)
		data, err := ld.Load(url)
		if err != nil {
			sess.Log(logx.LevelError, "%v", err)
			out.IsError = true
		} else if result, err := placeholder.Build(data, url, ro); err != nil {
			sess.Log(logx.LevelError, "%v", err)
			out.IsError = true
		} else {
			st.Put(url, result.DataURL, result.OriginalWidth, result.OriginalHeight, ro)
			out.Placeholder = placeholder.WrapOriginal(result.DataURL, ro.OutputKind, ro.WrapWithSVG, result.OriginalWidth, result.OriginalHeight, result.OriginalWidth, result.OriginalHeight)
			if db != nil && st.Dirty() {
				inserts, updates := st.DrainDirty()
				if err := db.Flush(inserts, updates); err != nil {
					sess.Log(logx.LevelError, "failed to flush persistent cache: %v", err)
				}
			}
		}
	}

	for _, e := range sess.Drain() {
		out.Logs = append(out.Logs, LogEntry{Message: e.Message, Level: e.Level})
	}
	return out
}

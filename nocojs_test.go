package nocojs

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 100, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestTransformNoClientImportReturnsNone(t *testing.T) {
	out, err := Transform(`console.log("hello")`, "file.ts", TransformOptions{CacheFileDir: t.TempDir()})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestTransformRemoteNormalPlaceholderDefaultSizing(t *testing.T) {
	data := testPNG(t, 320, 200)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	src := `import { preview } from "nocojs/client";
const x = preview("` + srv.URL + `/a.png");`

	out, err := Transform(src, "file.ts", TransformOptions{Cache: true, ReplaceFunctionCall: true, CacheFileDir: t.TempDir()})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, strings.Contains(out.Code, `"data:image/png;base64,`))
	assert.False(t, strings.Contains(out.Code, "preview("))
}

func TestTransformRenamedImportAverageColor(t *testing.T) {
	data := testPNG(t, 64, 32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	src := `import { preview as p } from "nocojs/client";
const x = p("` + srv.URL + `/b.jpg", { placeholderType: "average-color", width: 8 });`

	out, err := Transform(src, "file.ts", TransformOptions{Cache: true, ReplaceFunctionCall: true, CacheFileDir: t.TempDir()})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Contains(t, out.Code, "data:image/png;base64,")
}

func TestTransformIdempotentSecondRunNoHTTP(t *testing.T) {
	data := testPNG(t, 32, 32)
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(data)
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	src := `import { preview } from "nocojs/client";
const x = preview("` + srv.URL + `/a.png");`
	opts := TransformOptions{Cache: true, ReplaceFunctionCall: true, CacheFileDir: cacheDir}

	first, err := Transform(src, "file.ts", opts)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, requests)

	second, err := Transform(src, "file.ts", opts)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 1, requests, "cache hit must not issue a second HTTP request")
	assert.Equal(t, first.Code, second.Code)
}

func TestTransformLocalAssetViaPublicDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "c.png"), testPNG(t, 16, 16), 0o644))

	src := `import { preview } from "nocojs/client";
const x = preview("/img/c.png");`

	out, err := Transform(src, "file.ts", TransformOptions{Cache: true, ReplaceFunctionCall: true, PublicDir: dir, CacheFileDir: t.TempDir()})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Contains(t, out.Code, "data:image/png;base64,")
}

func TestTransformFailureIsolatesToOneCall(t *testing.T) {
	data := testPNG(t, 16, 16)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.png"), data, 0o644))

	src := `import { preview } from "nocojs/client";
const a = preview("good.png");
const b = preview("missing.png");`

	out, err := Transform(src, "file.ts", TransformOptions{Cache: true, ReplaceFunctionCall: true, PublicDir: dir, CacheFileDir: t.TempDir()})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Contains(t, out.Code, "data:image/png;base64,")
	assert.Contains(t, out.Code, `preview("missing.png")`)
	require.Len(t, out.Logs, 1)
	assert.Equal(t, "error", out.Logs[0].Level)
}

func TestTransformNonReplaceModeKeepsCallSwapsFirstArg(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), testPNG(t, 16, 16), 0o644))

	src := `import { preview } from "nocojs/client";
const x = preview("a.png", { replaceFunctionCall: false });`

	out, err := Transform(src, "file.ts", TransformOptions{Cache: true, PublicDir: dir, CacheFileDir: t.TempDir()})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Contains(t, out.Code, "preview(")
	assert.Contains(t, out.Code, "data:image/png;base64,")
	assert.NotContains(t, out.Code, `"a.png"`)
}

func TestTransformNonStringFirstArgLeftUntouched(t *testing.T) {
	src := `import { preview } from "nocojs/client";
const u = "a.png";
const x = preview(u);`

	out, err := Transform(src, "file.ts", TransformOptions{Cache: true, CacheFileDir: t.TempDir()})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, src, out.Code)
	require.Len(t, out.Logs, 1)
}

func TestGetPlaceholderRepeatCallReturnsSamePlaceholder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), testPNG(t, 16, 16), 0o644))
	cacheDir := t.TempDir()

	out := GetPlaceholder("a.png", GetPlaceholderOptions{Cache: true, PublicDir: dir, CacheFileDir: cacheDir})
	require.False(t, out.IsError)
	assert.Contains(t, out.Placeholder, "data:image/png;base64,")

	out2 := GetPlaceholder("a.png", GetPlaceholderOptions{Cache: true, PublicDir: dir, CacheFileDir: cacheDir})
	require.False(t, out2.IsError)
	assert.Equal(t, out.Placeholder, out2.Placeholder)
}

// Package placeholder implements the Placeholder Pipeline (component C,
// spec.md §4.3): bytes -> resized+restyled image -> base64 data URL,
// optionally SVG-wrapped.
//
// Decode accepts PNG/JPEG/GIF (stdlib) and WebP (golang.org/x/image/webp,
// registered in convert.go) via image.Decode's format sniffer, per
// spec.md §4.3.1. Encode is always stdlib image/png, the same choice the
// teacher makes in image.go for its own screenshot PNGs. Nearest-neighbor
// resize is hand-rolled because spec.md §4.3.4 mandates nearest-neighbor
// specifically ("do not substitute other filters"); a general-purpose
// resize library would bring along filters this transform must never use.
package placeholder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"net/url"
	"strings"

	"github.com/akzhy/nocojs/internal/options"
)

var (
	// ErrDecode is returned when the input bytes can't be decoded as a
	// supported image format (spec.md §4.3 "DecodeError").
	ErrDecode = errors.New("nocojs: could not decode image")
	// ErrEncode is returned when re-encoding fails, including target
	// dimensions collapsing to zero (spec.md §4.3.3/§4.3 "EncodeError").
	ErrEncode = errors.New("nocojs: could not encode placeholder image")
)

// Result is the Pipeline's output (spec.md §4.3 "build(...)").
type Result struct {
	DataURL        string
	OriginalWidth  uint32
	OriginalHeight uint32
}

// Build runs the decode -> channel-select -> resize -> encode pipeline
// described in spec.md §4.3. Blurred output comes back wrapped in the
// blur SVG; the generic SVG wrap is not applied here but by WrapOriginal
// at delivery, so the returned DataURL is the value that gets cached.
func Build(data []byte, urlTag string, o options.RenderOptions) (Result, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrDecode, urlTag, err)
	}

	srcBounds := img.Bounds()
	origW, origH := uint32(srcBounds.Dx()), uint32(srcBounds.Dy())
	if origW == 0 || origH == 0 {
		return Result{}, fmt.Errorf("%w: %s: zero-sized source image", ErrDecode, urlTag)
	}

	newW, newH := targetDimensions(origW, origH, o.Width, o.Height)
	if newW == 0 || newH == 0 {
		return Result{}, fmt.Errorf("%w: target dimensions collapsed to zero", ErrEncode)
	}

	var dataURL string
	switch o.OutputKind {
	case options.Grayscale:
		gray := toGray(img)
		resized := resizeGray(gray, int(newW), int(newH))
		png, err := encodeGrayPNG(resized)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrEncode, err)
		}
		dataURL = pngDataURL(png)

	case options.Normal, options.Blurred:
		rgb := toRGBA(img)
		resized := resizeRGBA(rgb, int(newW), int(newH))
		png, err := encodeRGBAPNG(resized)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrEncode, err)
		}
		dataURL = pngDataURL(png)
		if o.OutputKind == options.Blurred {
			dataURL = wrapBlurSVG(dataURL, int(newW), int(newH))
		}

	case options.AverageColor, options.DominantColor:
		rgb := toRGBA(img)
		resized := resizeRGBA(rgb, int(newW), int(newH))
		var c color.RGBA
		if o.OutputKind == options.AverageColor {
			c = averageColor(resized)
		} else {
			c = dominantColor(resized)
		}
		png, err := encodeSolidPNG(int(newW), int(newH), c)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrEncode, err)
		}
		dataURL = pngDataURL(png)

	case options.Transparent:
		png, err := encodeSolidPNG(int(newW), int(newH), color.RGBA{0, 0, 0, 0})
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrEncode, err)
		}
		dataURL = pngDataURL(png)

	default:
		return Result{}, fmt.Errorf("%w: unknown output kind %v", ErrEncode, o.OutputKind)
	}

	return Result{DataURL: dataURL, OriginalWidth: origW, OriginalHeight: origH}, nil
}

// WrapOriginal applies the delivery-time SVG wrapping policy to a data
// URL returned by Build or read back from the cache (spec.md §3 "SVG
// wrapping is applied per-delivery").
func WrapOriginal(dataURL string, kind options.OutputKind, wrapWithSVG bool, originalW, originalH, renderedW, renderedH uint32) string {
	if kind == options.Blurred {
		return dataURL
	}
	if wrapWithSVG {
		return wrapGenericSVG(dataURL, int(originalW), int(originalH))
	}
	return dataURL
}

// targetDimensions applies spec.md §4.3.3's sizing policy.
func targetDimensions(srcW, srcH uint32, wantW, wantH *uint32) (uint32, uint32) {
	ratio := float64(srcH) / float64(srcW)
	switch {
	case wantW != nil && wantH != nil:
		return *wantW, *wantH
	case wantW != nil:
		return *wantW, uint32(roundHalfAwayFromZero(float64(*wantW) * ratio))
	case wantH != nil:
		return uint32(roundHalfAwayFromZero(float64(*wantH) / ratio)), *wantH
	default:
		return 16, uint32(roundHalfAwayFromZero(16 * ratio))
	}
}

func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return float64(int64(v + 0.5))
	}
	return float64(int64(v - 0.5))
}

func pngDataURL(data []byte) string {
	return "data:image/png;base64," + base64Encode(data)
}

// percentEncode implements the same "encodeURIComponent"-flavored
// percent-encoding the SVG data-URL wrapping needs: url.QueryEscape
// encodes spaces as '+', which is wrong inside a data URI, so they are
// rewritten to %20 after escaping.
func percentEncode(s string) string {
	escaped := url.QueryEscape(s)
	return strings.ReplaceAll(escaped, "+", "%20")
}

func wrapBlurSVG(pngDataURLStr string, w, h int) string {
	d := int(roundHalfAwayFromZero(float64(w) * 0.05))
	base64Data := strings.TrimPrefix(pngDataURLStr, "data:image/png;base64,")
	svg := fmt.Sprintf(
		`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 %d %d' width='%d' height='%d'><filter id='b' color-interpolation-filters='sRGB'><feGaussianBlur stdDeviation='%d'/><feColorMatrix values='1 0 0 0 0 0 1 0 0 0 0 0 1 0 0 0 0 0 100 -1' result='s'/><feFlood x='0' y='0' width='100%%' height='100%%'/><feComposite operator='out' in='s'/><feComposite in2='SourceGraphic'/><feGaussianBlur stdDeviation='%d'/></filter><image width='100%%' height='100%%' x='0' y='0' preserveAspectRatio='none' style='filter: url(#b);' href='data:image/png;base64,___DATA___'/></svg>`,
		w, h, w, h, d, d,
	)
	encoded := percentEncode(svg)
	encoded = strings.Replace(encoded, percentEncode("___DATA___"), base64Data, 1)
	return "data:image/svg+xml," + encoded
}

func wrapGenericSVG(dataURLStr string, w, h int) string {
	svg := fmt.Sprintf(
		`<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 %d %d' width='%d' height='%d'><image width='100%%' height='100%%' preserveAspectRatio='none' href='___DATA___'/></svg>`,
		w, h, w, h,
	)
	encoded := percentEncode(svg)
	encoded = strings.Replace(encoded, "___DATA___", dataURLStr, 1)
	return "data:image/svg+xml," + encoded
}

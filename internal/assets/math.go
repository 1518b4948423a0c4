package assets

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/walma-app/walma/internal/content"
)

// ErrInvalidMathParams is returned for render parameters the math image
// service would reject.
var ErrInvalidMathParams = errors.New("invalid math image parameters")

const (
	DefaultSalt   = "v5"
	MaxLatexBytes = 16384
	MaxWidthPt    = 860
	MinFontPx     = 8
	MaxFontPx     = 48
)

// MathParams are the client-side render parameters that feed the image key.
type MathParams struct {
	Token   string  // unit token the image belongs to
	Scale   int     // device pixel scale, 2 or 3
	WidthPt float64 // content width in points
	FontPx  int     // font size in CSS px
}

// Validate checks the params and LaTeX source against the service limits.
func (p MathParams) Validate(latex string) error {
	switch {
	case len(latex) == 0 || len(latex) > MaxLatexBytes:
		return fmt.Errorf("%w: latex must be 1..%d bytes, got %d", ErrInvalidMathParams, MaxLatexBytes, len(latex))
	case !(p.WidthPt > 0 && p.WidthPt <= MaxWidthPt):
		return fmt.Errorf("%w: wpt %v out of range (0, %d]", ErrInvalidMathParams, p.WidthPt, MaxWidthPt)
	case p.Scale != 2 && p.Scale != 3:
		return fmt.Errorf("%w: scale must be 2 or 3, got %d", ErrInvalidMathParams, p.Scale)
	case p.FontPx < MinFontPx || p.FontPx > MaxFontPx:
		return fmt.Errorf("%w: fpx %d out of range [%d, %d]", ErrInvalidMathParams, p.FontPx, MinFontPx, MaxFontPx)
	}
	return nil
}

// UnitToken is the math key token for parts of one unit. Every producer of
// math keys for a level uses it, so rendered files and image URLs agree.
func UnitToken(levelID string, ordinal int) string {
	return levelID + ":" + strconv.Itoa(ordinal)
}

// PixelWidth is the canonical rendered width. Halves round to even, the same
// way the image service rounds.
func PixelWidth(wpt float64, scale int) int {
	return int(math.RoundToEven(wpt * float64(scale)))
}

// MathKey returns the content address of a rendered math image and its pixel
// width: hex sha256 of "salt|token|scale|pixelWidth|fpx|" followed by the
// raw LaTeX bytes.
func MathKey(salt, token string, scale int, wpt float64, fpx int, latex string) (string, int) {
	pw := PixelWidth(wpt, scale)
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%d|%d|", salt, token, scale, pw, fpx)
	h.Write([]byte(latex))
	return hex.EncodeToString(h.Sum(nil)), pw
}

// MathImage is a located math rendering.
type MathImage struct {
	Key        string
	PixelWidth int
	URL        Locator
}

// MathLocator builds image service URLs for math parts.
type MathLocator struct {
	BaseURL string
	Salt    string
}

// NewMathLocator returns a locator for the service at baseURL. An empty salt
// selects DefaultSalt.
func NewMathLocator(baseURL, salt string) MathLocator {
	if salt == "" {
		salt = DefaultSalt
	}
	return MathLocator{BaseURL: strings.TrimRight(baseURL, "/"), Salt: salt}
}

// Locate returns the image for a math part. The LaTeX is used exactly as
// stored in the part.
func (l MathLocator) Locate(part content.Part, p MathParams) (MathImage, error) {
	if !part.IsMath() {
		return MathImage{}, fmt.Errorf("%w: part kind %q is not math", ErrInvalidMathParams, part.Kind)
	}
	if err := p.Validate(part.Value); err != nil {
		return MathImage{}, err
	}

	key, pw := MathKey(l.Salt, p.Token, p.Scale, p.WidthPt, p.FontPx, part.Value)
	q := url.Values{}
	q.Set("latex_b64", base64.RawURLEncoding.EncodeToString([]byte(part.Value)))
	q.Set("wpt", strconv.FormatFloat(p.WidthPt, 'f', -1, 64))
	q.Set("fpx", strconv.Itoa(p.FontPx))
	q.Set("scale", strconv.Itoa(p.Scale))
	q.Set("token", p.Token)

	return MathImage{
		Key:        key,
		PixelWidth: pw,
		URL:        Locator(l.BaseURL + "/math/v1/png/" + key + ".png?" + q.Encode()),
	}, nil
}

// Package sharelink transmits a sealed report out-of-band as a compact
// URL query token.
//
// The token is deflate-compressed report text in URL-safe base64. A token
// present at load time feeds the same parse/verify path as a scanned
// barcode; a token that fails to decode is a distinct verification-error
// state, not a tamper verdict, because nothing was parsed at all.
package sharelink

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
)

// ErrMalformedToken reports a token that could not be decoded back into
// report text.
var ErrMalformedToken = errors.New("sharelink: malformed token")

// Param is the query parameter carrying the token.
const Param = "p"

// Encode compresses and encodes report text into a URL-safe token.
func Encode(report string) (string, error) {
	var buf bytes.Buffer
	zw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("sharelink: compress: %w", err)
	}
	if _, err := io.WriteString(zw, report); err != nil {
		return "", fmt.Errorf("sharelink: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("sharelink: compress: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode. Any decoding failure wraps ErrMalformedToken.
func Decode(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	zr := flate.NewReader(bytes.NewReader(raw))
	defer zr.Close()

	text, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return string(text), nil
}

// BuildURL appends the token for report to a base verification URL.
func BuildURL(base, report string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("sharelink: parse base URL: %w", err)
	}
	token, err := Encode(report)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(Param, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// TokenFromURL extracts the share token from a verification URL, or ""
// when none is present.
func TokenFromURL(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get(Param)
}

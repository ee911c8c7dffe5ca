package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when content is empty or only whitespace.
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrFailedToGenerateQRCode is returned when the encoder rejects the content.
	ErrFailedToGenerateQRCode = errors.New("failed to generate QR code")
)

// DefaultSize is the image size in pixels used for non-positive sizes.
const DefaultSize = 256

const dataURIPrefix = "data:image/png;base64,"

// Medium recovery keeps provisioning URIs with long issuer names at a scannable density.
const recoveryLevel = skipqrcode.Medium

func encoder(content string) (*skipqrcode.QRCode, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	q, err := skipqrcode.New(content, recoveryLevel)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerateQRCode, err)
	}
	return q, nil
}

// Generate renders content as a square PNG of size pixels.
func Generate(content string, size int) ([]byte, error) {
	q, err := encoder(content)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := q.PNG(size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerateQRCode, err)
	}
	return png, nil
}

// GenerateBase64Image renders content as a PNG data URI ready for an <img src>.
func GenerateBase64Image(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// DecodeBase64Image extracts the PNG bytes from a data URI produced by GenerateBase64Image.
func DecodeBase64Image(dataURI string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(dataURI, dataURIPrefix)
	if !ok || encoded == "" {
		return nil, ErrEmptyContent
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Terminal renders content with Unicode half blocks for printing to a terminal.
// Set inverse for terminals with a light background.
func Terminal(content string, inverse bool) (string, error) {
	q, err := encoder(content)
	if err != nil {
		return "", err
	}
	return renderHalfBlocks(q.Bitmap(), inverse), nil
}

// renderHalfBlocks packs two bitmap rows into each text line.
func renderHalfBlocks(bitmap [][]bool, inverse bool) string {
	var b strings.Builder
	for y := 0; y < len(bitmap); y += 2 {
		for x := range bitmap[y] {
			top := bitmap[y][x] != inverse
			bottom := inverse
			if y+1 < len(bitmap) {
				bottom = bitmap[y+1][x] != inverse
			}
			switch {
			case top && bottom:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bottom:
				b.WriteRune('▄')
			default:
				b.WriteRune(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

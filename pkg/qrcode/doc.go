// Package qrcode renders otpauth provisioning URIs as QR codes using
// github.com/skip2/go-qrcode: PNG bytes, a PNG data URI for web pages, or
// half-block text for terminals.
//
//	dataURI, err := qrcode.GenerateBase64Image(uri, 256)
//	text, err := qrcode.Terminal(uri, false)
//
// Empty content fails with ErrEmptyContent; encoder failures wrap
// ErrFailedToGenerateQRCode.
package qrcode

package export

import (
	"encoding/base64"
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultQRSize is the edge length in pixels used when size is not positive.
const DefaultQRSize = 256

// ErrEmptyQRContent is returned when there is nothing to encode.
var ErrEmptyQRContent = errors.New("export: empty QR content")

// QRPNG encodes content as a size x size PNG QR code.
func QRPNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyQRContent
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// QRDataURL encodes content as a PNG QR code inside a data URL, ready for an
// <img> src attribute.
func QRDataURL(content string, size int) (string, error) {
	png, err := QRPNG(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

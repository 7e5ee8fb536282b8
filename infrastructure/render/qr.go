package render

import (
	"bytes"
	"errors"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// DefaultQRSize is the edge length in pixels of generated QR codes.
const DefaultQRSize = 200

// QREncoder encodes a URL as a square PNG QR code.
type QREncoder interface {
	Encode(url string, size int) ([]byte, error)
}

// QRRenderer encodes with medium error correction.
type QRRenderer struct{}

var errEmptyQR = errors.New("qr content is required")

func (QRRenderer) Encode(url string, size int) ([]byte, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errEmptyQR
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	code, err := qr.Encode(url, qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, toNRGBA(scaled)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ShareURL builds the public share link for a receipt.
func ShareURL(baseURL, receiptID string) string {
	return strings.TrimRight(baseURL, "/") + "/share/" + receiptID
}

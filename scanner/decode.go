package scanner

import (
	"bytes"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNoQRFound covers both an image with no readable QR code and an
// unreadable image. Handlers surface it distinctly from backend errors so
// the user knows to re-scan rather than retry the network.
var ErrNoQRFound = errors.New("no QR code found in image")

// Decode extracts the text payload of the first QR code in the image.
func Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", ErrNoQRFound
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", ErrNoQRFound
	}
	return result.GetText(), nil
}

// DecodeBytes decodes a PNG or JPEG buffer, typically an uploaded file or a
// single sampled camera frame.
func DecodeBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNoQRFound
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", ErrNoQRFound
	}
	return Decode(img)
}

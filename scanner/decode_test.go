package scanner

import (
	"testing"

	qrgen "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBytesRoundtrip(t *testing.T) {
	payloads := []string{
		"upi://pay?pa=jane4821@paysplit&pn=Jane&am=150",
		"paysplit://split/3b61e3e6-7f6c-4d09-9d9c-0a8f2a6d1c11",
		"123456",
	}

	for _, payload := range payloads {
		png, err := qrgen.Encode(payload, qrgen.Medium, 256)
		require.NoError(t, err)

		decoded, err := DecodeBytes(png)
		require.NoError(t, err, "payload %q", payload)
		assert.Equal(t, payload, decoded)
	}
}

func TestDecodeBytesNoQRFound(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":     nil,
		"garbage":   []byte("definitely not an image"),
		"truncated": {0x89, 0x50, 0x4e, 0x47, 0x0d},
	} {
		_, err := DecodeBytes(data)
		assert.ErrorIs(t, err, ErrNoQRFound, name)
	}
}

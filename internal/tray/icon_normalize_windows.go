//go:build windows

package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/example/traymenu/internal/logging"
)

// The Windows tray only accepts ICO containers.
func platformNormalizeIcon(data []byte) []byte {
	if len(data) < 4 {
		return nil
	}
	if isICO(data) {
		return data
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logging.Debugf("failed to decode tray icon image: %v", err)
		return nil
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		logging.Debugf("tray icon image has invalid bounds: %dx%d", bounds.Dx(), bounds.Dy())
		return nil
	}

	pngData := data
	if format != "png" {
		buf := new(bytes.Buffer)
		if err := png.Encode(buf, img); err != nil {
			logging.Debugf("failed to convert tray icon to png: %v", err)
			return nil
		}
		pngData = buf.Bytes()
	}

	ico, err := wrapPNGAsICO(pngData, bounds.Dx(), bounds.Dy())
	if err != nil {
		logging.Debugf("failed to wrap tray icon PNG as ico: %v", err)
		return nil
	}
	logging.Debugf("normalized tray icon (%dx%d) from %s to ico container", bounds.Dx(), bounds.Dy(), format)
	return ico
}

type icoHeader struct {
	Reserved uint16
	Type     uint16
	Count    uint16
}

type icoDirEntry struct {
	Width      uint8
	Height     uint8
	Colors     uint8
	Reserved   uint8
	Planes     uint16
	BitCount   uint16
	BytesInRes uint32
	Offset     uint32
}

func wrapPNGAsICO(pngData []byte, width, height int) ([]byte, error) {
	// 0 encodes 256 or more pixels.
	dimension := func(v int) uint8 {
		if v <= 0 || v >= 256 {
			return 0
		}
		return uint8(v)
	}

	buf := &bytes.Buffer{}
	header := icoHeader{Type: 1, Count: 1}
	entry := icoDirEntry{
		Width:      dimension(width),
		Height:     dimension(height),
		Planes:     1,
		BitCount:   32,
		BytesInRes: uint32(len(pngData)),
		Offset:     6 + 16,
	}
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, entry); err != nil {
		return nil, err
	}
	buf.Write(pngData)
	return buf.Bytes(), nil
}

func isICO(data []byte) bool {
	return len(data) >= 4 && data[0] == 0x00 && data[1] == 0x00 && data[2] == 0x01 && data[3] == 0x00
}

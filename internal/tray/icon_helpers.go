package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

var (
	defaultIconOnce sync.Once
	defaultIconData []byte
)

// defaultIcon draws a plain 16x16 badge used when no icon is configured.
func defaultIcon() []byte {
	defaultIconOnce.Do(func() {
		img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
		fill := color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
		for y := 2; y < 14; y++ {
			for x := 2; x < 14; x++ {
				img.Set(x, y, fill)
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err == nil {
			defaultIconData = buf.Bytes()
		}
	})
	return defaultIconData
}

func cloneDefaultIcon() []byte {
	return cloneIcon(defaultIcon())
}

func cloneIcon(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp
}

func normalizedIcon(data []byte) []byte {
	if len(data) == 0 {
		data = cloneDefaultIcon()
	}
	normalized := platformNormalizeIcon(data)
	if len(normalized) == 0 {
		return cloneDefaultIcon()
	}
	return cloneIcon(normalized)
}

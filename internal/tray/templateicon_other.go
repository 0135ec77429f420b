//go:build (cgo || windows) && !(darwin && cgo)

package tray

func setTemplateIcon([]byte) {}

//go:build !cgo && !windows

package tray

import (
	"context"
	"errors"

	"github.com/example/traymenu/internal/protocol"
)

type stubController struct{}

func newTrayController() trayController {
	return stubController{}
}

// Run returns an error indicating tray functionality is unavailable without cgo.
func (stubController) Run(context.Context, <-chan Update, func(protocol.ItemID)) error {
	return errors.New("system tray is unavailable without cgo support")
}

//go:build !darwin

package screenshot

import (
	"context"
	"errors"
)

func captureWindowNative(context.Context, uint32, string) error {
	return errors.New("native window capture is only available on macOS")
}

//go:build !linux

package itemqueue

import "errors"

var errPinUnsupported = errors.New("cpu pinning is only supported on linux")

func pinToCPU(int) error { return errPinUnsupported }

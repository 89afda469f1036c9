//go:build !linux

package ports

import (
	"errors"

	"github.com/fisaks/lightedge/internal/config"
)

func WithGPIO(_ Ports, _ *config.GPIOConfig, _ bool) (Ports, error) {
	return nil, errors.New("gpio character device is only available on linux")
}

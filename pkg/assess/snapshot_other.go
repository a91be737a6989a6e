//go:build !linux

package assess

import (
	"context"
	"errors"
)

func collectSnapshot(ctx context.Context) (*UtilizationSnapshot, error) {
	return nil, errors.ErrUnsupported
}

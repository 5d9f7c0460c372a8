// Package registry keeps per-device enrollment state keyed by UDID.
package registry

import (
	"context"

	"github.com/jmehdipour/micromdm-webhook/internal/model"
)

// Registry is a keyed store of device enrollment state.
//
// Upsert is atomic per UDID: it either creates the record or overwrites its
// enrolled flag, and reports whether the record was created by this call.
type Registry interface {
	Upsert(ctx context.Context, udid string, enrolled bool) (created bool, err error)
	Get(ctx context.Context, udid string) (model.Device, bool, error)
}

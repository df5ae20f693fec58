//go:build !linux && !darwin && !windows

package platform

import "context"

// Notify is a no-op on platforms without a supported notification service.
func Notify(ctx context.Context, n Notification) error {
	return nil
}

//go:build darwin

package platform

import (
	"context"
	"fmt"
	"os/exec"
)

// Notify shows n in Notification Center through osascript.
func Notify(ctx context.Context, n Notification) error {
	script := fmt.Sprintf("display notification %q with title %q subtitle %q", n.Body, n.Title, AppName)
	return exec.CommandContext(ctx, "osascript", "-e", script).Run()
}

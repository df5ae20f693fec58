// Package platform sends desktop notifications through the host's
// notification service.
package platform

import "time"

// AppName is reported to notification services that group by application.
const AppName = "Markup"

// Notification is one desktop notification.
type Notification struct {
	Title string
	Body  string
	// IconPath, when set, points to an image shown with the notification
	// where the platform supports it.
	IconPath string
	// Timeout is a hint for how long the notification stays visible.
	Timeout time.Duration
}

func (n Notification) timeoutMillis() int32 {
	if n.Timeout <= 0 {
		return 5000
	}
	return int32(n.Timeout / time.Millisecond)
}

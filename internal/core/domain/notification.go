package domain

// PushPermission mirrors the browser notification permission states.
type PushPermission string

const (
	PermissionGranted PushPermission = "granted"
	PermissionDenied  PushPermission = "denied"
	PermissionDefault PushPermission = "default"
)

// PushNotification is an ephemeral notification event. It is never stored.
type PushNotification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

const (
	TitleTaskAssigned      = "New Task Assigned"
	TitleTaskStatusUpdated = "Task Status Updated"
)

// Package notify declares the admin-notification collaborator. Delivery is
// external; the API only emits events.
package notify

import "context"

// Event names emitted by the API.
const (
	EventUnauthorizedAction = "UNAUTHORIZED_ACTION"
	EventBulkOperation      = "BULK_OPERATION"
)

// Notifier delivers admin notifications.
type Notifier interface {
	Notify(ctx context.Context, event string, payload map[string]interface{})
}

// NopNotifier drops every event. Used until a delivery backend is wired.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, map[string]interface{}) {}

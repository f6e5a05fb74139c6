package bus

import "time"

// Event is a single state-change notification published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds published by the state store, the notification center and
// the owner-flow machine. Subscribers filter by prefix, so "state." selects
// every store mutation and "" selects everything.
const (
	KindAuthChanged      = "state.auth_changed"
	KindUserReplaced     = "state.user_replaced"
	KindPhonesReplaced   = "state.phones_replaced"
	KindOwnerChanged     = "state.owner_changed"
	KindThreadsReplaced  = "state.threads_replaced"
	KindThreadSelected   = "state.thread_selected"
	KindMessagesReplaced = "state.messages_replaced"
	KindHeartbeat        = "state.heartbeat_replaced"
	KindPollingChanged   = "state.polling_changed"

	KindNotifyPushed    = "notify.pushed"
	KindNotifyDismissed = "notify.dismissed"

	KindFlowChanged = "flow.changed"
)

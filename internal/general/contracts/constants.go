package contracts

// Exchanges
const (
	ExchangeBookingTopic = "booking_topic"
	ExchangeNotifyTopic  = "notify_topic"
)

// Queues
const (
	QueueBookingEvents = "booking_events"
	QueueNotifyPush    = "notify_push"
	QueueNotifyEmail   = "notify_email"
)

// Routing patterns
const (
	RouteBookingEventPrefix = "booking.event." // {event_type}
	RouteNotifyPushPrefix   = "notify.push."   // {priority}
	RouteNotifyEmailPrefix  = "notify.email."  // {priority}
)

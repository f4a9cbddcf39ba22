package contracts

// NotificationMessage is one channel's delivery job, published to the
// notify topic exchange and consumed by the notification worker.
type NotificationMessage struct {
	NotificationID string `json:"notification_id"`
	UserID         string `json:"user_id"`
	Channel        string `json:"channel"` // push | email
	Type           string `json:"type"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Priority       string `json:"priority"`

	// Channel addressing, filled from the user record.
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	Envelope Envelope `json:"envelope"`
}

package notification

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	MaxTitleLength   = 100
	MaxMessageLength = 500

	// DefaultTTL is how long an unread notification stays relevant.
	DefaultTTL = 7 * 24 * time.Hour
)

// Priority orders notifications for clients; it does not change delivery.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether the priority is a known level.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// Status tracks a notification through delivery and reading.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusPartial   Status = "partial" // at least one channel failed
	StatusRead      Status = "read"
)

// Channel names the delivery transports.
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// ChannelResult captures one channel's delivery attempt.
type ChannelResult struct {
	Status    string    `json:"status"` // delivered | offline | failed
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// Channel delivery statuses.
const (
	DeliveryDelivered = "delivered"
	DeliveryOffline   = "offline"
	DeliveryFailed    = "failed"
)

// Notification is the domain entity corresponding to the `notifications`
// table.
type Notification struct {
	ID        string
	UserID    string
	Type      string
	Title     string
	Message   string
	Priority  Priority
	Data      map[string]any
	Status    Status
	Delivery  map[Channel]ChannelResult
	CreatedAt time.Time
	ReadAt    *time.Time
	ExpiresAt time.Time
}

var (
	ErrUserRequired    = errors.New("user id is required")
	ErrTypeRequired    = errors.New("notification type is required")
	ErrTitleRequired   = errors.New("notification title is required")
	ErrMessageRequired = errors.New("notification message is required")
	ErrTitleTooLong    = fmt.Errorf("notification title must be %d characters or less", MaxTitleLength)
	ErrMessageTooLong  = fmt.Errorf("notification message must be %d characters or less", MaxMessageLength)
)

// New validates and builds a notification in sent state with the default
// expiry.
func New(userID, kind, title, message string, priority Priority, data map[string]any) (*Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserRequired
	}
	if strings.TrimSpace(kind) == "" {
		return nil, ErrTypeRequired
	}
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(message) == "" {
		return nil, ErrMessageRequired
	}
	if len(title) > MaxTitleLength {
		return nil, ErrTitleTooLong
	}
	if len(message) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}
	if !priority.Valid() {
		priority = PriorityMedium
	}

	now := time.Now().UTC()
	return &Notification{
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		Priority:  priority,
		Data:      data,
		Status:    StatusSent,
		Delivery:  map[Channel]ChannelResult{},
		CreatedAt: now,
		ExpiresAt: now.Add(DefaultTTL),
	}, nil
}

// ApplyDeliveryResults records per-channel outcomes and settles the
// overall status: delivered unless any channel failed, then partial.
func (n *Notification) ApplyDeliveryResults(results map[Channel]ChannelResult) {
	n.Delivery = results
	n.Status = StatusDelivered
	for _, r := range results {
		if r.Status == DeliveryFailed {
			n.Status = StatusPartial
			break
		}
	}
}

// MarkRead stamps the notification as read.
func (n *Notification) MarkRead(at time.Time) {
	n.Status = StatusRead
	n.ReadAt = &at
}

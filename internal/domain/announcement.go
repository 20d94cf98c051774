package domain

// Announcement is a message admins broadcast to store managers.
type Announcement struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	IsActive  bool   `json:"isActive"`
	Timestamp int64  `json:"timestamp"`
}

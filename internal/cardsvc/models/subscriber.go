package models

import "time"

// Subscriber represents the subscribers table in the database.
type Subscriber struct {
	// ID orders subscribers by first contact. Ignored duplicate inserts
	// still consume a sequence value, so ids can have gaps.
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName is "first last (@username)" with empty parts left out.
func (s Subscriber) DisplayName() string {
	name := s.FirstName
	if s.LastName != "" {
		if name != "" {
			name += " "
		}
		name += s.LastName
	}
	if s.Username != "" {
		if name != "" {
			name += " "
		}
		name += "(@" + s.Username + ")"
	}
	return name
}

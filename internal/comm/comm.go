package comm

import (
	"encoding/json"
	"time"
)

// Event is the envelope published on the card service subject.
type Event struct {
	Type       string          `json:"type"` // e.g. "card.issued", "subscriber.joined"
	Data       json.RawMessage `json:"data"`
	InstanceId string          `json:"instanceid"`
	Timestamp  time.Time       `json:"timestamp"`
}

type CardIssued struct {
	UserId int64  `json:"user_id"`
	CardId string `json:"card_id"`
	Token  string `json:"token"`
}

type CardFailed struct {
	UserId int64  `json:"user_id"`
	CardId string `json:"card_id"`
	Token  string `json:"token"`
	Stage  string `json:"stage"`
}

type SubscriberJoined struct {
	UserId    int64  `json:"user_id"`
	UserName  string `json:"username,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

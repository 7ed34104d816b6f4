package models

// CardIdentifier is the decimal number printed on a membership card and
// encoded in its barcode.
type CardIdentifier string

func (c CardIdentifier) String() string {
	return string(c)
}

// Card is the outcome of one issuance.
type Card struct {
	Identifier CardIdentifier `json:"card_id"`
	UserID     int64          `json:"user_id"`
	Token      string         `json:"token"`
}

package service

import (
	"strconv"

	"github.com/avvvet/card-services/internal/cardsvc/models"
)

// DefaultIdentifierWidth is the number of trailing digits kept from a user
// id. Distinct users whose ids share those digits get the same card number.
const DefaultIdentifierWidth = 9

// DeriveIdentifier keeps the last width characters of userID's decimal
// form. Shorter ids are used whole, without padding.
func DeriveIdentifier(userID int64, width int) models.CardIdentifier {
	s := strconv.FormatInt(userID, 10)
	if width > 0 && len(s) > width {
		s = s[len(s)-width:]
	}
	return models.CardIdentifier(s)
}

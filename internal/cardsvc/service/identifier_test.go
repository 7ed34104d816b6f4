package service

import (
	"math"
	"testing"

	"github.com/avvvet/card-services/internal/cardsvc/models"
	"github.com/stretchr/testify/assert"
)

func TestDeriveIdentifier(t *testing.T) {
	tests := []struct {
		name   string
		userID int64
		width  int
		want   models.CardIdentifier
	}{
		{"twelve digits", 123456789012, 9, "456789012"},
		{"exactly nine digits", 987654321, 9, "987654321"},
		{"short id is not padded", 4242, 9, "4242"},
		{"leading zeros after truncation are kept", 1000000123, 9, "000000123"},
		{"max int64", math.MaxInt64, 9, "854775807"},
		{"custom width", 123456789012, 6, "789012"},
		{"zero width keeps everything", 123456789012, 0, "123456789012"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveIdentifier(tt.userID, tt.width))
		})
	}
}

func TestDeriveIdentifierIsStable(t *testing.T) {
	for _, id := range []int64{1, 99999999, 123456789, 5555555555, 7000000000123} {
		first := DeriveIdentifier(id, DefaultIdentifierWidth)
		assert.Equal(t, first, DeriveIdentifier(id, DefaultIdentifierWidth))
		if id >= 100000000 {
			assert.Len(t, first.String(), DefaultIdentifierWidth)
		}
	}
}

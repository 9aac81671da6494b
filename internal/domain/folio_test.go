package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildFolio(t *testing.T) {
	createdAt := time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		sequence int
		user     string
		expected string
	}{
		{
			name:     "single word user",
			sequence: 1,
			user:     "admin",
			expected: "0001-05-03-24-ADMIN",
		},
		{
			name:     "user with spaces",
			sequence: 42,
			user:     "Juan Pérez",
			expected: "0042-05-03-24-JUAN_PÉREZ",
		},
		{
			name:     "repeated and surrounding whitespace",
			sequence: 7,
			user:     "  maria   de la\tluz ",
			expected: "0007-05-03-24-MARIA_DE_LA_LUZ",
		},
		{
			name:     "empty user falls back to placeholder",
			sequence: 3,
			user:     "",
			expected: "0003-05-03-24-USUARIO",
		},
		{
			name:     "blank user falls back to placeholder",
			sequence: 3,
			user:     "   ",
			expected: "0003-05-03-24-USUARIO",
		},
		{
			name:     "sequence wider than four digits",
			sequence: 12345,
			user:     "ana",
			expected: "12345-05-03-24-ANA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildFolio(tt.sequence, createdAt, tt.user))
		})
	}
}

func TestBuildFolio_IsStable(t *testing.T) {
	createdAt := time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC)

	first := BuildFolio(9, createdAt, "Luis Gómez")
	second := BuildFolio(9, createdAt, "Luis Gómez")

	assert.Equal(t, first, second)
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-\d{2}-[^\s]+$`), first)
}

func TestBuildFolio_UsesTimestampLocation(t *testing.T) {
	loc := time.FixedZone("CST", -6*60*60)
	// 03:00 UTC on the 1st is still the previous day at UTC-6.
	createdAt := time.Date(2024, time.February, 1, 3, 0, 0, 0, time.UTC).In(loc)

	assert.Equal(t, "0001-31-01-24-ADMIN", BuildFolio(1, createdAt, "admin"))
}

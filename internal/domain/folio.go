package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const FolioUserPlaceholder = "USUARIO"

var whitespaceRun = regexp.MustCompile(`\s+`)

// BuildFolio formats the human readable order identifier: 0001-DD-MM-YY-USER.
// The date parts are read from createdAt as given, so callers must pass it in
// the business location. Timestamps loaded from the database are UTC and need
// createdAt.In(loc) first.
func BuildFolio(sequence int, createdAt time.Time, userName string) string {
	user := strings.TrimSpace(userName)
	if user == "" {
		user = FolioUserPlaceholder
	}
	user = whitespaceRun.ReplaceAllString(strings.ToUpper(user), "_")

	return fmt.Sprintf("%04d-%02d-%02d-%02d-%s",
		sequence, createdAt.Day(), int(createdAt.Month()), createdAt.Year()%100, user)
}

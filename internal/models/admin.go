package models

import (
	"slices"
	"strings"
)

// AdminAllowList is the static set of email addresses allowed into the admin dashboard.
type AdminAllowList []string

// Allows reports whether email is on the list, ignoring case and surrounding whitespace.
func (l AdminAllowList) Allows(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	return slices.ContainsFunc(l, func(allowed string) bool {
		return strings.ToLower(strings.TrimSpace(allowed)) == email
	})
}

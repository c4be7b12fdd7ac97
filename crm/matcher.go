// ABOUTME: Contact deduplication and matching logic
// ABOUTME: Matches a visit to a contact by email, then phone, then full address
package crm

import (
	"strings"

	"github.com/harperreed/workly/models"
)

// findMatch returns the index of the first contact matching v, or -1.
// Each rule scans contacts in storage order before the next rule is tried.
func findMatch(contacts []models.Contact, v models.Visit) int {
	if email := normalizeEmail(v.Email); email != "" {
		for i := range contacts {
			if normalizeEmail(contacts[i].Email) == email {
				return i
			}
		}
	}

	if v.Phone != "" {
		for i := range contacts {
			if contacts[i].Phone == v.Phone {
				return i
			}
		}
	}

	if hasFullAddress(v) {
		for i := range contacts {
			c := contacts[i]
			if c.Street == v.Street && c.City == v.City && c.State == v.State && c.Zip == v.Zip {
				return i
			}
		}
	}

	return -1
}

func hasFullAddress(v models.Visit) bool {
	return v.Street != "" && v.City != "" && v.State != "" && v.Zip != ""
}

// normalizeEmail converts email to lowercase for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(email)
}

// ABOUTME: Sales status enumeration recognized by stats and deal logic
// ABOUTME: Only Opportunity triggers opportunity counting and deal creation
package models

import "strings"

// Door-to-door outcomes.
const (
	StatusOpportunity                = "Opportunity"
	StatusLead                       = "Lead"
	StatusMildInterest               = "Mild Interest"
	StatusNotInterested              = "Not Interested"
	StatusLeftDoorHanger             = "Left Door Hanger"
	StatusLeftDoorHangerWithEstimate = "Left Door Hanger with Estimate"
	StatusImpartial                  = "Impartial"
	StatusDoNotGoBack                = "Do Not Go Back"
)

// CRM lifecycle statuses.
const (
	StatusCustomer      = "Customer"
	StatusPastCustomer  = "Past Customer"
	StatusClosedLost    = "Closed Lost"
	StatusQualifiedLead = "Qualified Lead"
)

// StatusUnknown buckets visits logged without a status.
const StatusUnknown = "Unknown"

var DoorToDoorStatuses = []string{
	StatusOpportunity,
	StatusLead,
	StatusMildInterest,
	StatusNotInterested,
	StatusLeftDoorHanger,
	StatusLeftDoorHangerWithEstimate,
	StatusImpartial,
	StatusDoNotGoBack,
}

var CRMStatuses = []string{
	StatusCustomer,
	StatusPastCustomer,
	StatusClosedLost,
	StatusQualifiedLead,
}

// AllStatuses returns every recognized sales status in display order.
func AllStatuses() []string {
	out := make([]string, 0, len(DoorToDoorStatuses)+len(CRMStatuses))
	out = append(out, DoorToDoorStatuses...)
	return append(out, CRMStatuses...)
}

// CanonicalStatus returns the enumeration spelling of status, matched
// case-insensitively.
func CanonicalStatus(status string) (string, bool) {
	for _, s := range AllStatuses() {
		if strings.EqualFold(s, status) {
			return s, true
		}
	}
	return "", false
}

// IsKnownStatus reports whether status is one of the fixed enumeration values,
// ignoring case.
func IsKnownStatus(status string) bool {
	_, ok := CanonicalStatus(status)
	return ok
}

// IsOpportunity matches "Opportunity" case-insensitively.
func IsOpportunity(status string) bool {
	return strings.EqualFold(status, StatusOpportunity)
}

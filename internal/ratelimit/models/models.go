// Package models defines the admission-control vocabulary shared by the
// service, stores, and middleware.
package models

import "time"

// TrafficClass partitions traffic into independently metered buckets. A caller
// exhausting one class keeps its allowance in the others until a violation
// triggers a dynamic ban, which covers all classes.
type TrafficClass string

const (
	// ClassUpload covers document and scan submissions.
	ClassUpload TrafficClass = "upload"
	// ClassPrivate covers endpoints exposing personal data.
	ClassPrivate TrafficClass = "private"
	// ClassRead covers public read traffic.
	ClassRead TrafficClass = "read"
)

func (c TrafficClass) IsValid() bool {
	switch c {
	case ClassUpload, ClassPrivate, ClassRead:
		return true
	}
	return false
}

// DenyReason explains a negative admission decision.
type DenyReason string

const (
	DenyStaticBlacklist  DenyReason = "BLACKLIST_STATIC"
	DenyDynamicBlacklist DenyReason = "BLACKLIST_DYNAMIC"
	DenyQuotaExceeded    DenyReason = "QUOTA_EXCEEDED"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool
	// Reason is set only when Allowed is false.
	Reason DenyReason
	// Limit is the class quota per window.
	Limit int
	// Remaining is how many requests the window still admits.
	Remaining int
	// RetryAfter hints when a denied caller may try again.
	RetryAfter time.Duration
}

// BlacklistEntry is a permanently banned address with its provenance.
type BlacklistEntry struct {
	Address   string    `json:"address"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
}

package listing

import "strings"

// NormalizeQuality canonicalizes a status or quality token coming from the
// store. Values written by reviewers and by the external scorer do not share
// casing or whitespace, so every comparison goes through here first.
func NormalizeQuality(q *string) string {
	if q == nil {
		return ""
	}
	return Normalize(*q)
}

// Normalize is NormalizeQuality for a value that is known to be present.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// StatusVariant picks the badge variant for a workflow status.
func StatusVariant(status string) string {
	switch Normalize(status) {
	case StatusPending:
		return "pending"
	case StatusDone, QualityOK:
		return "ok"
	case StatusReview:
		return "review"
	default:
		return "unknown"
	}
}

// DashboardStatus is the status text shown in the listings table, where a
// finished listing reads as "ok".
func DashboardStatus(status string) string {
	s := Normalize(status)
	if s == StatusDone {
		return QualityOK
	}
	return s
}

func QualityVariant(quality string) string {
	switch Normalize(quality) {
	case QualityOK:
		return "ok"
	case QualityReview:
		return "review"
	default:
		return "unknown"
	}
}

func QualityLabel(quality string) string {
	q := Normalize(quality)
	switch q {
	case QualityOK:
		return "OK"
	case QualityReview:
		return "Review"
	default:
		return q
	}
}

// Counts holds the dashboard counters.
type Counts struct {
	OK      int `json:"ok"`
	Pending int `json:"pending"`
	Review  int `json:"review"`
}

// Add accounts one listing in the counters.
func (c *Counts) Add(status, quality string) {
	if Normalize(status) == StatusPending {
		c.Pending++
	}

	switch Normalize(quality) {
	case QualityOK:
		c.OK++
	case QualityReview:
		c.Review++
	}
}

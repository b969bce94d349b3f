package types

import (
	"regexp"
	"time"
)

// DateLayout is the calendar-date format exchanged with the upstream API.
const DateLayout = "2006-01-02"

var endpointPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Filter is the normalized query forwarded to an order source.
type Filter struct {
	Endpoint string    `query:"endpoint" validate:"required,endpoint"`
	DateFrom time.Time `query:"dateFrom" validate:"required"`
	DateTo   time.Time `query:"dateTo" validate:"required,gtefield=DateFrom"`
	Page     int       `query:"page" validate:"min=1"`
	Limit    int       `query:"limit" validate:"min=1"`
	// Key is nil when the client did not send one; it is never defaulted.
	Key *string `query:"key"`
}

// ValidEndpoint reports whether name is safe to splice into an upstream path.
func ValidEndpoint(name string) bool {
	return endpointPattern.MatchString(name)
}

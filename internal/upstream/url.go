package upstream

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/angelmondragon/sales-analytics/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
)

// BuildURL maps a normalized filter to {baseURL}/api/{endpoint}?dateFrom&dateTo&page&limit[&key].
// Parameters are always emitted in that order.
func BuildURL(filter types.Filter, baseURL string) (*url.URL, error) {
	if !types.ValidEndpoint(filter.Endpoint) {
		return nil, pkgerrors.InvalidParameter("endpoint may only contain letters, digits, '_' and '-', got %q", filter.Endpoint)
	}

	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse upstream base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "upstream base url must be absolute")
	}

	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + "/api/" + filter.Endpoint
	u.RawPath = ""
	u.RawQuery = encodeQuery(filter)
	u.Fragment = ""
	return &u, nil
}

// encodeQuery is hand-ordered because url.Values.Encode sorts keys alphabetically.
func encodeQuery(filter types.Filter) string {
	var b strings.Builder
	write := func(name, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	write("dateFrom", filter.DateFrom.Format(types.DateLayout))
	write("dateTo", filter.DateTo.Format(types.DateLayout))
	write("page", strconv.Itoa(filter.Page))
	write("limit", strconv.Itoa(filter.Limit))
	if filter.Key != nil {
		write("key", *filter.Key)
	}
	return b.String()
}

// Redacted returns u as a string with the key value masked, for logs.
func Redacted(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	if !q.Has("key") {
		return u.String()
	}
	clone := *u
	clone.RawQuery = strings.Replace(u.RawQuery, "key="+url.QueryEscape(q.Get("key")), "key=REDACTED", 1)
	return clone.String()
}

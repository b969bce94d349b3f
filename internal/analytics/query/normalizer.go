package query

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/sales-analytics/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
)

const (
	ParamEndpoint = "endpoint"
	ParamDateFrom = "dateFrom"
	ParamDateTo   = "dateTo"
	ParamPage     = "page"
	ParamLimit    = "limit"
	ParamKey      = "key"
)

const (
	DefaultPage     = 1
	DefaultLimit    = 100
	MaxLimit        = 1000
	DefaultLookback = 30 * 24 * time.Hour
)

// Options holds the startup-time defaults applied by the normalizer.
type Options struct {
	DefaultLookback time.Duration
	DefaultLimit    int
	MaxLimit        int
}

func (o Options) withDefaults() Options {
	if o.DefaultLookback <= 0 {
		o.DefaultLookback = DefaultLookback
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = MaxLimit
	}
	if o.DefaultLimit <= 0 || o.DefaultLimit > o.MaxLimit {
		o.DefaultLimit = min(DefaultLimit, o.MaxLimit)
	}
	return o
}

// Normalizer turns loosely specified client parameters into a Filter.
// It keeps no per-request state and is safe for concurrent use.
type Normalizer struct {
	opts     Options
	validate *validator.Validate
}

func NewNormalizer(opts Options) *Normalizer {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("query"); name != "" {
			return name
		}
		return field.Name
	})
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("endpoint", func(fl validator.FieldLevel) bool {
		return types.ValidEndpoint(fl.Field().String())
	})
	return &Normalizer{opts: opts.withDefaults(), validate: v}
}

// Normalize applies defaults and validation. The caller has already checked
// that endpoint is present. Unknown parameters are dropped.
func (n *Normalizer) Normalize(raw url.Values, now time.Time) (types.Filter, error) {
	filter := types.Filter{
		Endpoint: strings.TrimSpace(raw.Get(ParamEndpoint)),
		Page:     DefaultPage,
		Limit:    n.opts.DefaultLimit,
	}

	today := calendarDate(now.UTC())
	filter.DateFrom = calendarDate(now.UTC().Add(-n.opts.DefaultLookback))
	filter.DateTo = today

	if v := param(raw, ParamDateFrom); v != "" {
		d, err := parseDate(ParamDateFrom, v)
		if err != nil {
			return types.Filter{}, err
		}
		filter.DateFrom = d
	}
	if v := param(raw, ParamDateTo); v != "" {
		d, err := parseDate(ParamDateTo, v)
		if err != nil {
			return types.Filter{}, err
		}
		filter.DateTo = d
	}

	if v := param(raw, ParamPage); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return types.Filter{}, pkgerrors.InvalidParameter("%s must be a positive integer, got %q", ParamPage, v)
		}
		filter.Page = page
	}
	if v := param(raw, ParamLimit); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return types.Filter{}, pkgerrors.InvalidParameter("%s must be a positive integer, got %q", ParamLimit, v)
		}
		if limit < 1 || limit > n.opts.MaxLimit {
			return types.Filter{}, pkgerrors.InvalidParameter("%s must be between 1 and %d, got %d", ParamLimit, n.opts.MaxLimit, limit)
		}
		filter.Limit = limit
	}

	if v := param(raw, ParamKey); v != "" {
		key := raw.Get(ParamKey)
		filter.Key = &key
	}

	if err := n.validate.Struct(filter); err != nil {
		return types.Filter{}, translate(err)
	}
	return filter, nil
}

func param(raw url.Values, name string) string {
	return strings.TrimSpace(raw.Get(name))
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDate(name, value string) (time.Time, error) {
	if d, err := time.Parse(types.DateLayout, value); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return calendarDate(ts), nil
	}
	return time.Time{}, pkgerrors.InvalidParameter("%s must be a date in YYYY-MM-DD format, got %q", name, value)
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validate filter")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return pkgerrors.InvalidParameter("%s is required", fe.Field())
	case "endpoint":
		return pkgerrors.InvalidParameter("%s may only contain letters, digits, '_' and '-'", fe.Field())
	case "gtefield":
		return pkgerrors.InvalidParameter("%s must not be before %s", ParamDateTo, ParamDateFrom)
	case "min":
		return pkgerrors.InvalidParameter("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return pkgerrors.InvalidParameter("%s is invalid", fe.Field())
	}
}

// String renders a filter for logs. The access key is never included.
func String(f types.Filter) string {
	return fmt.Sprintf("endpoint=%s dateFrom=%s dateTo=%s page=%d limit=%d key_set=%t",
		f.Endpoint,
		f.DateFrom.Format(types.DateLayout),
		f.DateTo.Format(types.DateLayout),
		f.Page,
		f.Limit,
		f.Key != nil,
	)
}

package client

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Query parameter names understood by the backend.
const (
	ParamBusinessGroup = "business_group"
	ParamFunction      = "function"
	ParamStartDate     = "start_date"
	ParamEndDate       = "end_date"
)

// Param is one filter criterion. Value may be nil, a string, a number, a
// bool, a time.Time, a fmt.Stringer, or a pointer to any of those.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered filter set. Go maps carry no order, so the query
// follows slice order.
type Params []Param

// Filters is the filter set shared by the dashboard views. Empty fields are
// left out of the query.
type Filters struct {
	BusinessGroup string `json:"business_group,omitempty"`
	Function      string `json:"function,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
}

// Params returns the filters in their canonical order.
func (f Filters) Params() Params {
	return Params{
		{Key: ParamBusinessGroup, Value: f.BusinessGroup},
		{Key: ParamFunction, Value: f.Function},
		{Key: ParamStartDate, Value: f.StartDate},
		{Key: ParamEndDate, Value: f.EndDate},
	}
}

// Query encodes the filters; see BuildQuery.
func (f Filters) Query() string {
	return BuildQuery(f.Params())
}

// BuildQuery URL-encodes params into a query string without the leading '?'.
// Entries whose value is nil, a nil pointer, the empty string or a zero
// time.Time are skipped; 0 and false are kept. Keys keep their input order.
func BuildQuery(params Params) string {
	var b strings.Builder
	for _, p := range params {
		v, ok := formatValue(p.Value)
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}
	return b.String()
}

// formatValue renders v the way it should appear in a query string. The
// boolean result is false when the value must be omitted.
func formatValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case time.Time:
		if t.IsZero() {
			return "", false
		}
		return t.Format(time.DateOnly), true
	case *time.Time:
		if t == nil {
			return "", false
		}
		return formatValue(*t)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "", false
	}
	// Stringers, including pointer receivers, take precedence over deref.
	if s, ok := v.(fmt.Stringer); ok {
		out := s.String()
		return out, out != ""
	}
	if rv.Kind() == reflect.Pointer {
		return formatValue(rv.Elem().Interface())
	}

	switch rv.Kind() {
	case reflect.String:
		s := rv.String()
		return s, s != ""
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	default:
		s := fmt.Sprint(v)
		return s, s != ""
	}
}

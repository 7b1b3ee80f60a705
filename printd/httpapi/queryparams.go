package httpapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/printwatch/printwatch/printsdk"
)

// QueryParamParser is a helper for parsing all query params and gathering all
// errors in 1 sweep. This means all invalid fields are returned at once,
// rather than only returning the first error
type QueryParamParser struct {
	// Errors is the set of errors to return via the API. If the length
	// of this set is 0, there are no errors!.
	Errors []printsdk.ValidationError
}

func NewQueryParamParser() *QueryParamParser {
	return &QueryParamParser{
		Errors: []printsdk.ValidationError{},
	}
}

// PositiveInt parses queryParam as an integer in [1, maxValue]. Values
// above maxValue are clamped; an absent value yields def.
func (p *QueryParamParser) PositiveInt(vals url.Values, def, maxValue int, queryParam string) int {
	raw := strings.TrimSpace(vals.Get(queryParam))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		p.Errors = append(p.Errors, printsdk.ValidationError{
			Field:  queryParam,
			Detail: fmt.Sprintf("Query param %q must be a positive integer", queryParam),
		})
		return def
	}
	return min(v, maxValue)
}

func (*QueryParamParser) String(vals url.Values, def string, queryParam string) string {
	raw := strings.TrimSpace(vals.Get(queryParam))
	if raw == "" {
		return def
	}
	return raw
}

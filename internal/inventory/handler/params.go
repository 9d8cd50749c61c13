package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstock/labstock-backend/pkg/errors"
)

// parseIntParam reads a non-negative integer query parameter, falling back
// to def when absent. Malformed or negative values are a bad request.
func parseIntParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errBadQueryParam(name)
	}
	return n, nil
}

// parsePageParams reads the shared limit/offset paging parameters.
func parsePageParams(r *http.Request) (limit, offset int, err error) {
	limit, err = parseIntParam(r, "limit", 100)
	if err != nil {
		return 0, 0, err
	}
	offset, err = parseIntParam(r, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func errBadQueryParam(name string) error {
	return errors.BadRequest(fmt.Sprintf("invalid %s parameter", name))
}

// parseTimeRange reads the from/to query parameters as RFC 3339 timestamps
// or plain dates. With required set, both must be present.
func parseTimeRange(r *http.Request, required bool) (time.Time, time.Time, error) {
	var from, to time.Time

	parse := func(name string) (time.Time, error) {
		v := r.URL.Query().Get(name)
		if v == "" {
			if required {
				return time.Time{}, errors.BadRequest(fmt.Sprintf("%s parameter is required", name))
			}
			return time.Time{}, nil
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, nil
		}
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, errBadQueryParam(name)
		}
		return t, nil
	}

	from, err := parse("from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err = parse("to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

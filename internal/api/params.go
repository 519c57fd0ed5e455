package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lavishdadwani/Stock-Management/internal/model"
)

const (
	defaultPageLimit       = 20
	defaultAttendanceLimit = 10
)

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// pageParams reads page and limit query parameters.
func pageParams(r *http.Request, defaultLimit int) model.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return model.NewPage(page, limit, defaultLimit)
}

// optionalID reads a positive integer query parameter.
func optionalID(r *http.Request, key string) (*int64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return nil, &model.ValidationError{Fields: map[string]string{key: key + " must be a positive integer"}}
	}
	return &id, nil
}

// dateRange reads startDate and endDate. Dates without a time cover the whole
// day, so endDate=2026-03-01 includes everything on March 1st.
func dateRange(r *http.Request) (start, end *time.Time, err error) {
	fields := map[string]string{}
	q := r.URL.Query()

	if v := q.Get("startDate"); v != "" {
		t, _, ok := parseDate(v)
		if ok {
			start = &t
		} else {
			fields["startDate"] = "startDate must be YYYY-MM-DD or RFC 3339"
		}
	}
	if v := q.Get("endDate"); v != "" {
		t, dateOnly, ok := parseDate(v)
		if ok {
			if dateOnly {
				t = t.Add(24*time.Hour - time.Nanosecond)
			}
			end = &t
		} else {
			fields["endDate"] = "endDate must be YYYY-MM-DD or RFC 3339"
		}
	}

	if len(fields) > 0 {
		return nil, nil, &model.ValidationError{Fields: fields}
	}
	return start, end, nil
}

func parseDate(v string) (t time.Time, dateOnly, ok bool) {
	if t, err := time.ParseInLocation(time.DateOnly, v, time.Local); err == nil {
		return t, true, true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, false, true
	}
	return time.Time{}, false, false
}

package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/carestack/cdr/pkg/persistence"
	"github.com/carestack/cdr/pkg/utils/rfctime"
)

const defaultPageSize = 25

// queryOptions reads the pagination controls shared by every find endpoint:
// offset, count, queryId (frozen pagination) and fuzzyTotal.
func queryOptions(params url.Values) (persistence.QueryOptions, error) {
	opts := persistence.QueryOptions{Count: defaultPageSize}

	if v := params.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return opts, fmt.Errorf(`"offset" should be a non-negative integer: %s`, v)
		}
		opts.Offset = offset
	}
	if v := params.Get("count"); v != "" {
		count, err := strconv.Atoi(v)
		if err != nil || count <= 0 {
			return opts, fmt.Errorf(`"count" should be a positive integer: %s`, v)
		}
		opts.Count = count
	}
	if v := params.Get("queryId"); v != "" {
		queryId, err := uuid.Parse(v)
		if err != nil {
			return opts, fmt.Errorf(`"queryId" should be a uuid: %s`, v)
		}
		opts.QueryId = queryId
	}
	if v := params.Get("fuzzyTotal"); v != "" {
		fuzzy, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf(`"fuzzyTotal" should be a boolean: %s`, v)
		}
		opts.FuzzyTotal = fuzzy
	}
	return opts, nil
}

func uuidQuery(params url.Values, name string) (*uuid.UUID, error) {
	v := params.Get(name)
	if v == "" {
		return nil, nil
	}
	key, err := uuid.Parse(v)
	if err != nil {
		return nil, fmt.Errorf(`"%s" should be a uuid: %s`, name, v)
	}
	return &key, nil
}

func stringQuery(params url.Values, name string) *string {
	v := params.Get(name)
	if v == "" {
		return nil
	}
	return &v
}

func boolQuery(params url.Values, name string) (bool, error) {
	v := params.Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf(`"%s" should be a boolean: %s`, name, v)
	}
	return b, nil
}

func timeQuery(params url.Values, name string) (*time.Time, error) {
	v := params.Get(name)
	if v == "" {
		return nil, nil
	}
	parsed, err := rfctime.ParseRFC3339DateTime(v)
	if err != nil {
		return nil, fmt.Errorf(`"%s" should be an RFC3339 timestamp: %s`, name, v)
	}
	t := parsed.Time()
	return &t, nil
}

package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	apiact "github.com/carestack/cdr/pkg/api/types/acts"
)

func (c *client) FindActs(
	ctx context.Context, filter ActFilter, page Page,
) (apiact.FindResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath("acts"), nil)
	if err != nil {
		return apiact.FindResult{}, err
	}

	q := url.Values{}
	if filter.Class != "" {
		q.Add("class", filter.Class)
	}
	if filter.Mood != "" {
		q.Add("mood", filter.Mood)
	}
	if filter.Status != "" {
		q.Add("status", filter.Status)
	}
	if filter.Patient != "" {
		q.Add("patient", filter.Patient)
	}
	if filter.From != "" {
		q.Add("from", filter.From)
	}
	if filter.To != "" {
		q.Add("to", filter.To)
	}
	pageQuery(q, page)
	req.URL.RawQuery = q.Encode()

	resp, err := c.do(req)
	if err != nil {
		return apiact.FindResult{}, err
	}
	defer resp.Body.Close()

	var result apiact.FindResult
	if err := unmarshalJsonResponse(
		resp, &result,
		MessageFor{
			Status4xx: "act query is rejected",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiact.FindResult{}, err
	}
	return result, nil
}

func (c *client) GetAct(ctx context.Context, key string, version string) (apiact.Detail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath("acts", key), nil)
	if err != nil {
		return apiact.Detail{}, err
	}
	if version != "" {
		q := url.Values{}
		q.Add("version", version)
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.do(req)
	if err != nil {
		return apiact.Detail{}, err
	}
	defer resp.Body.Close()

	var detail apiact.Detail
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: fmt.Sprintf("act %s is not found", key),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiact.Detail{}, err
	}
	return detail, nil
}

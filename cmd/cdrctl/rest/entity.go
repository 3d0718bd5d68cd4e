package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	apient "github.com/carestack/cdr/pkg/api/types/entities"
)

func (c *client) FindEntities(
	ctx context.Context, filter EntityFilter, page Page,
) (apient.FindResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath("entities"), nil)
	if err != nil {
		return apient.FindResult{}, err
	}

	q := url.Values{}
	if filter.Class != "" {
		q.Add("class", filter.Class)
	}
	if filter.Status != "" {
		q.Add("status", filter.Status)
	}
	if filter.Name != "" {
		q.Add("name", filter.Name)
	}
	if filter.Identifier != "" {
		q.Add("identifier", filter.Identifier)
	}
	if filter.IdentifierDomain != "" {
		q.Add("identifierDomain", filter.IdentifierDomain)
	}
	if filter.IncludeObsolete {
		q.Add("includeObsolete", "true")
	}
	if filter.ObsoleteOnly {
		q.Add("obsoleteOnly", "true")
	}
	pageQuery(q, page)
	req.URL.RawQuery = q.Encode()

	resp, err := c.do(req)
	if err != nil {
		return apient.FindResult{}, err
	}
	defer resp.Body.Close()

	var result apient.FindResult
	if err := unmarshalJsonResponse(
		resp, &result,
		MessageFor{
			Status4xx: "entity query is rejected",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apient.FindResult{}, err
	}
	return result, nil
}

func (c *client) GetEntity(ctx context.Context, key string, version string) (apient.Detail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath("entities", key), nil)
	if err != nil {
		return apient.Detail{}, err
	}
	if version != "" {
		q := url.Values{}
		q.Add("version", version)
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.do(req)
	if err != nil {
		return apient.Detail{}, err
	}
	defer resp.Body.Close()

	var detail apient.Detail
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: fmt.Sprintf("entity %s is not found", key),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apient.Detail{}, err
	}
	return detail, nil
}

func (c *client) PostEntity(ctx context.Context, detail apient.Detail) (apient.Detail, error) {
	b, err := json.Marshal(detail)
	if err != nil {
		return apient.Detail{}, err
	}

	resp, err := c.sendJson(ctx, http.MethodPost, c.apipath("entities"), bytes.NewBuffer(b))
	if err != nil {
		return apient.Detail{}, err
	}
	defer resp.Body.Close()

	var created apient.Detail
	if err := unmarshalJsonResponse(
		resp, &created,
		MessageFor{
			Status4xx: "invalid request",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apient.Detail{}, err
	}
	return created, nil
}

func (c *client) PutEntity(ctx context.Context, key string, detail apient.Detail) (apient.Detail, error) {
	b, err := json.Marshal(detail)
	if err != nil {
		return apient.Detail{}, err
	}

	resp, err := c.sendJson(ctx, http.MethodPut, c.apipath("entities", key), bytes.NewBuffer(b))
	if err != nil {
		return apient.Detail{}, err
	}
	defer resp.Body.Close()

	var updated apient.Detail
	if err := unmarshalJsonResponse(
		resp, &updated,
		MessageFor{
			Status4xx: fmt.Sprintf("entity %s is not found, or the request is invalid", key),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apient.Detail{}, err
	}
	return updated, nil
}

func (c *client) DeleteEntity(ctx context.Context, key string, purge bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.apipath("entities", key), nil)
	if err != nil {
		return err
	}
	if purge {
		q := url.Values{}
		q.Add("purge", "true")
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return unmarshalResponseDiscardingPayload(
		resp,
		MessageFor{
			Status4xx: fmt.Sprintf("entity %s is not found", key),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	)
}

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apibundle "github.com/carestack/cdr/pkg/api/types/bundles"
)

func (c *client) SubmitBundle(ctx context.Context, b apibundle.Bundle) (apibundle.Bundle, error) {
	payload, err := json.Marshal(b)
	if err != nil {
		return apibundle.Bundle{}, err
	}

	resp, err := c.sendJson(ctx, http.MethodPost, c.apipath("bundles"), bytes.NewBuffer(payload))
	if err != nil {
		return apibundle.Bundle{}, err
	}
	defer resp.Body.Close()

	var persisted apibundle.Bundle
	if err := unmarshalJsonResponse(
		resp, &persisted,
		MessageFor{
			Status4xx: "bundle is rejected",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apibundle.Bundle{}, err
	}
	return persisted, nil
}

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	apiadmin "github.com/carestack/cdr/pkg/api/types/admin"
)

func (c *client) Copy(ctx context.Context, kind string, keys []string) (int, error) {
	parsed := make([]uuid.UUID, 0, len(keys))
	for _, k := range keys {
		key, err := uuid.Parse(k)
		if err != nil {
			return 0, fmt.Errorf("%s is not a key: %w", k, err)
		}
		parsed = append(parsed, key)
	}

	payload, err := json.Marshal(apiadmin.CopyRequest{Kind: kind, Keys: parsed})
	if err != nil {
		return 0, err
	}

	resp, err := c.sendJson(
		ctx, http.MethodPost, c.apipath("admin", "copy"), bytes.NewBuffer(payload),
	)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var result apiadmin.CopyResponse
	if err := unmarshalJsonResponse(
		resp, &result,
		MessageFor{
			Status4xx: "copy is rejected",
			Status5xx: "no replica store is attached, or the server failed to copy",
		},
	); err != nil {
		return 0, err
	}
	return result.Copied, nil
}

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apiusers "github.com/carestack/cdr/pkg/api/types/users"
)

func (c *client) Login(
	ctx context.Context, userName string, password string,
) (apiusers.AuthResponse, error) {
	payload, err := json.Marshal(apiusers.AuthRequest{
		UserName: userName, Password: password,
	})
	if err != nil {
		return apiusers.AuthResponse{}, err
	}

	resp, err := c.sendJson(ctx, http.MethodPost, c.apipath("auth"), bytes.NewBuffer(payload))
	if err != nil {
		return apiusers.AuthResponse{}, err
	}
	defer resp.Body.Close()

	var auth apiusers.AuthResponse
	if err := unmarshalJsonResponse(
		resp, &auth,
		MessageFor{
			Status4xx: "wrong username or password, or the account is locked",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiusers.AuthResponse{}, err
	}
	return auth, nil
}

func (c *client) ListUsers(ctx context.Context) ([]apiusers.Detail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath("users"), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var users []apiusers.Detail
	if err := unmarshalJsonResponse(
		resp, &users,
		MessageFor{
			Status4xx: "cannot list accounts",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *client) CreateUser(
	ctx context.Context, req apiusers.CreateRequest,
) (apiusers.Detail, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return apiusers.Detail{}, err
	}

	resp, err := c.sendJson(ctx, http.MethodPost, c.apipath("users"), bytes.NewBuffer(payload))
	if err != nil {
		return apiusers.Detail{}, err
	}
	defer resp.Body.Close()

	var created apiusers.Detail
	if err := unmarshalJsonResponse(
		resp, &created,
		MessageFor{
			Status4xx: "invalid request, or the username is taken",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiusers.Detail{}, err
	}
	return created, nil
}

func (c *client) LockUser(
	ctx context.Context, userName string, req apiusers.LockRequest,
) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	resp, err := c.sendJson(
		ctx, http.MethodPut, c.apipath("users", userName, "lock"), bytes.NewBuffer(payload),
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return unmarshalResponseDiscardingPayload(
		resp,
		MessageFor{
			Status4xx: fmt.Sprintf("account %s is not found", userName),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	)
}

func (c *client) UnlockUser(ctx context.Context, userName string) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodDelete, c.apipath("users", userName, "lock"), nil,
	)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return unmarshalResponseDiscardingPayload(
		resp,
		MessageFor{
			Status4xx: fmt.Sprintf("account %s is not found", userName),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	)
}

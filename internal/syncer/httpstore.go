package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"opsboard/pkg/models"
)

// Client talks to the board API, which plays the remote record store:
// insert-one acknowledged with the stored record, delete-by-id,
// partial update-by-id, select-by-filter.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Categories returns the remote store view over /board/categories.
func (c *Client) Categories() Remote[models.Category] {
	return entityRemote[models.Category]{client: c, path: "/board/categories"}
}

// Links returns the remote store view over /board/links.
func (c *Client) Links() Remote[models.Link] {
	return entityRemote[models.Link]{client: c, path: "/board/links"}
}

type entityRemote[T any] struct {
	client *Client
	path   string
}

func (r entityRemote[T]) Insert(ctx context.Context, rec T) (T, error) {
	var stored T
	err := r.client.doJSON(ctx, http.MethodPost, r.path, rec, &stored)
	return stored, err
}

func (r entityRemote[T]) Update(ctx context.Context, id int64, fields map[string]any) error {
	return r.client.doJSON(ctx, http.MethodPatch, fmt.Sprintf("%s/%d", r.path, id), fields, nil)
}

func (r entityRemote[T]) Delete(ctx context.Context, id int64) error {
	return r.client.doJSON(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", r.path, id), nil, nil)
}

func (r entityRemote[T]) Select(ctx context.Context, filter map[string]string) ([]T, error) {
	path := r.path
	if len(filter) > 0 {
		qv := url.Values{}
		for k, v := range filter {
			qv.Set(k, v)
		}
		path += "?" + qv.Encode()
	}

	var resp struct {
		Items []T `json:"items"`
	}
	if err := r.client.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, path, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

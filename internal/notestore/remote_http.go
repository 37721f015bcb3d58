package notestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"podnotes/backend/internal/note/domain"
	"podnotes/backend/internal/platform/apperr"
)

// HTTPRemote implements Remote against the PodNotes JSON API.
type HTTPRemote struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPRemote returns a Remote talking to baseURL (e.g. "http://host:8080")
// authenticated with the given bearer access token.
func NewHTTPRemote(baseURL, token string) *HTTPRemote {
	return &HTTPRemote{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *HTTPRemote) ListNotes(ctx context.Context, scope Scope) ([]*domain.Note, error) {
	path := "/v1/notes"
	if scope.PodID != "" {
		path += "?pod_id=" + url.QueryEscape(scope.PodID)
	}
	var out []*domain.Note
	if err := r.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *HTTPRemote) CreateNote(ctx context.Context, scope Scope, title, content string) (*domain.Note, error) {
	body := map[string]string{"title": title, "content": content}
	if scope.PodID != "" {
		body["pod_id"] = scope.PodID
	}
	var out domain.Note
	if err := r.do(ctx, http.MethodPost, "/v1/notes", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *HTTPRemote) UpdateNote(ctx context.Context, id string, patch domain.Patch) (*domain.Note, error) {
	var out domain.Note
	if err := r.do(ctx, http.MethodPatch, "/v1/notes/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *HTTPRemote) DeleteNote(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, "/v1/notes/"+url.PathEscape(id), nil, nil)
}

func (r *HTTPRemote) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return apperr.Wrapf(apperr.ErrValidation, "encode request: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return apperr.Wrapf(apperr.ErrRemote, "build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.client.Do(req)
	if err != nil {
		return apperr.Wrapf(apperr.ErrRemote, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrapf(apperr.ErrRemote, "decode response: %v", err)
	}
	return nil
}

// statusError maps the API's status codes back onto the error taxonomy the
// server mapped them from.
func statusError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload)
	msg := payload.Error
	if msg == "" {
		msg = resp.Status
	}
	kind := apperr.ErrRemote
	switch resp.StatusCode {
	case http.StatusBadRequest:
		kind = apperr.ErrValidation
	case http.StatusUnauthorized:
		kind = apperr.ErrAuth
	case http.StatusForbidden:
		kind = apperr.ErrPermission
	case http.StatusNotFound:
		kind = apperr.ErrNotFound
	case http.StatusConflict:
		kind = apperr.ErrDuplicate
	}
	return fmt.Errorf("%w: %s", kind, msg)
}

// Package api talks to the remote task service. It owns transport
// concerns only: paths, auth headers, payload decoding. Optimistic
// application and rollback live in the sync package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"studysync/pkg/task"
)

// Error carries the server's failure payload. The service reports errors
// as {"detail": "..."}; Detail falls back to the generic status text when
// the body is absent or malformed.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return http.StatusText(e.Status)
}

type Client struct {
	base     string
	token    string
	clientID string
	http     *http.Client
}

// New builds a client for the given base URL. The token is attached as a
// bearer credential on every call; token issuance is out of scope here.
func New(baseURL, token string) *Client {
	return &Client{
		base:     strings.TrimRight(baseURL, "/"),
		token:    token,
		clientID: uuid.NewString(),
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// ClientID identifies this session for request correlation. It is also
// sent on the push-channel handshake.
func (c *Client) ClientID() string {
	return c.clientID
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var r io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(bs)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.decorate(req)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return decodeError(res)
	}
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Client-ID", c.clientID)
}

func decodeError(res *http.Response) error {
	apiErr := &Error{Status: res.StatusCode}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err == nil {
		apiErr.Detail = payload.Detail
	}
	return apiErr
}

func (c *Client) ListTasks(ctx context.Context) ([]task.Task, error) {
	var out []task.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTask sends a new record and returns the canonical server copy,
// which carries the assigned ID.
func (c *Client) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", t, &out); err != nil {
		return task.Task{}, err
	}
	return out, nil
}

// UpdateTask sends a partial update; the service applies it as a set of
// field overwrites and broadcasts the result to other clients.
func (c *Client) UpdateTask(ctx context.Context, id string, updates map[string]interface{}) error {
	return c.do(ctx, http.MethodPut, "/tasks/"+id, updates, nil)
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+id, nil, nil)
}

// UploadAttachment streams a file to the task's attachment collection.
func (c *Client) UploadAttachment(ctx context.Context, taskID, filename string, r io.Reader) (task.Attachment, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return task.Attachment{}, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return task.Attachment{}, err
	}
	if err := mw.Close(); err != nil {
		return task.Attachment{}, err
	}

	path := "/tasks/" + taskID + "/attachments"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, &buf)
	if err != nil {
		return task.Attachment{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.decorate(req)

	res, err := c.http.Do(req)
	if err != nil {
		return task.Attachment{}, fmt.Errorf("upload %s: %w", filename, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return task.Attachment{}, decodeError(res)
	}
	var out task.Attachment
	err = json.NewDecoder(res.Body).Decode(&out)
	return out, err
}

func (c *Client) DeleteAttachment(ctx context.Context, taskID, attachmentID string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+taskID+"/attachments/"+attachmentID, nil, nil)
}

func (c *Client) AddNote(ctx context.Context, taskID, content string) (task.Note, error) {
	var out task.Note
	in := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, "/tasks/"+taskID+"/notes", in, &out); err != nil {
		return task.Note{}, err
	}
	return out, nil
}

func (c *Client) DeleteNote(ctx context.Context, taskID, noteID string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+taskID+"/notes/"+noteID, nil, nil)
}

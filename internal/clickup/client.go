// Package clickup is a thin REST gateway to the ClickUp v2 API, scoped to
// the resources Pulse touches: spaces, folders, lists, tasks and drop_down
// custom fields.
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

// Client calls the ClickUp API with one guild's token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New constructs a client. baseURL is injectable for tests; an empty value
// selects the public API.
func New(baseURL, token string, hc *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.clickup.com/api/v2"
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    hc,
	}
}

func (c *Client) do(ctx context.Context, method, path string, query neturl.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("clickup: marshal %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("clickup: build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("clickup: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("clickup: %s %s: status %d (%s)", method, path, resp.StatusCode, compactBody(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("clickup: decode %s %s: %w", method, path, err)
	}
	return nil
}

func compactBody(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "no body"
	}
	const maxLen = 280
	if len(trimmed) <= maxLen {
		return trimmed
	}
	return trimmed[:maxLen] + "..."
}

// Spaces lists the spaces of a team.
func (c *Client) Spaces(ctx context.Context, teamID string) ([]Space, error) {
	var out struct {
		Spaces []Space `json:"spaces"`
	}
	if err := c.do(ctx, http.MethodGet, "/team/"+neturl.PathEscape(teamID)+"/space", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Spaces, nil
}

// Folders lists the folders of a space, including their lists.
func (c *Client) Folders(ctx context.Context, spaceID string) ([]Folder, error) {
	var out struct {
		Folders []Folder `json:"folders"`
	}
	if err := c.do(ctx, http.MethodGet, "/space/"+neturl.PathEscape(spaceID)+"/folder", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Folders, nil
}

// SpaceLists lists the folderless lists of a space.
func (c *Client) SpaceLists(ctx context.Context, spaceID string) ([]List, error) {
	var out struct {
		Lists []List `json:"lists"`
	}
	if err := c.do(ctx, http.MethodGet, "/space/"+neturl.PathEscape(spaceID)+"/list", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Lists, nil
}

// FolderLists lists the lists of a folder.
func (c *Client) FolderLists(ctx context.Context, folderID string) ([]List, error) {
	var out struct {
		Lists []List `json:"lists"`
	}
	if err := c.do(ctx, http.MethodGet, "/folder/"+neturl.PathEscape(folderID)+"/list", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Lists, nil
}

// ListDetail returns a list with its status vocabulary.
func (c *Client) ListDetail(ctx context.Context, listID string) (List, error) {
	var out List
	if err := c.do(ctx, http.MethodGet, "/list/"+neturl.PathEscape(listID), nil, nil, &out); err != nil {
		return List{}, err
	}
	return out, nil
}

// ListFields returns the custom fields accessible on a list.
func (c *Client) ListFields(ctx context.Context, listID string) ([]CustomField, error) {
	var out struct {
		Fields []CustomField `json:"fields"`
	}
	if err := c.do(ctx, http.MethodGet, "/list/"+neturl.PathEscape(listID)+"/field", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Fields, nil
}

// ListTasks returns the tasks of a list, subtasks nested.
func (c *Client) ListTasks(ctx context.Context, listID string, includeClosed bool) ([]Task, error) {
	query := neturl.Values{"subtasks": {"true"}}
	if includeClosed {
		query.Set("include_closed", "true")
	}
	var out struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/list/"+neturl.PathEscape(listID)+"/task", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// Task returns one task with its subtask tree.
func (c *Client) Task(ctx context.Context, taskID string) (Task, error) {
	query := neturl.Values{"include_subtasks": {"true"}}
	var out Task
	if err := c.do(ctx, http.MethodGet, "/task/"+neturl.PathEscape(taskID), query, nil, &out); err != nil {
		return Task{}, err
	}
	return out, nil
}

// CreateTask creates a task in a list.
func (c *Client) CreateTask(ctx context.Context, listID string, req CreateTaskRequest) (Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPost, "/list/"+neturl.PathEscape(listID)+"/task", nil, req, &out); err != nil {
		return Task{}, err
	}
	return out, nil
}

// SetTaskStatus updates a task's status to a name from its list's vocabulary.
func (c *Client) SetTaskStatus(ctx context.Context, taskID, status string) error {
	body := map[string]string{"status": status}
	return c.do(ctx, http.MethodPut, "/task/"+neturl.PathEscape(taskID), nil, body, nil)
}

package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultGraphURL = "https://graph.facebook.com"
	graphVersion    = "v3.0"

	// Custom label endpoints predate v3.0 and stay pinned.
	labelsVersion = "v2.11"
)

// GraphClient talks to the Graph API on behalf of one page. The base URL is
// configurable so tests can point it at a local server.
type GraphClient struct {
	baseURL     string
	accessToken string
	client      *http.Client
	log         *slog.Logger
}

// NewGraphClient builds a client for the given page access token.
func NewGraphClient(accessToken, baseURL string, logger *slog.Logger) *GraphClient {
	if baseURL == "" {
		baseURL = defaultGraphURL
	}
	return &GraphClient{
		baseURL:     baseURL,
		accessToken: accessToken,
		client:      &http.Client{Timeout: 30 * time.Second},
		log:         logger.With("component", "graph"),
	}
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// call performs one Graph API request. The access token always travels as a
// query parameter; non-2xx responses are unwrapped into the API's error
// message when one is present.
func (g *GraphClient) call(ctx context.Context, method, version, path string, query url.Values, body, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("access_token", g.accessToken)
	endpoint := fmt.Sprintf("%s/%s%s?%s", g.baseURL, version, path, query.Encode())

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("graph %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("graph %s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ge graphError
		if json.Unmarshal(data, &ge) == nil && ge.Error.Message != "" {
			return fmt.Errorf("graph %s %s: %s (code %d)", method, path, ge.Error.Message, ge.Error.Code)
		}
		return fmt.Errorf("graph %s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("graph %s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

// Send delivers a message and returns the platform-issued message id.
func (g *GraphClient) Send(ctx context.Context, msg OutgoingMessage) (string, error) {
	var resp struct {
		RecipientID string `json:"recipient_id"`
		MessageID   string `json:"message_id"`
	}
	if err := g.call(ctx, http.MethodPost, graphVersion, "/me/messages", nil, msg, &resp); err != nil {
		return "", err
	}
	return resp.MessageID, nil
}

// SenderAction sets a typing or seen indicator for the given recipient.
func (g *GraphClient) SenderAction(ctx context.Context, recipientID, action string) error {
	body := struct {
		Recipient    Party  `json:"recipient"`
		SenderAction string `json:"sender_action"`
	}{Party{ID: recipientID}, action}
	return g.call(ctx, http.MethodPost, graphVersion, "/me/messages", nil, body, nil)
}

// SetProfile publishes greeting, get-started and persistent-menu settings.
func (g *GraphClient) SetProfile(ctx context.Context, p Profile) error {
	return g.call(ctx, http.MethodPost, graphVersion, "/me/messenger_profile", nil, p, nil)
}

// DeleteProfile removes the named messenger_profile fields.
func (g *GraphClient) DeleteProfile(ctx context.Context, fields []string) error {
	body := struct {
		Fields []string `json:"fields"`
	}{fields}
	return g.call(ctx, http.MethodDelete, graphVersion, "/me/messenger_profile", nil, body, nil)
}

// UserProfile fetches the public profile of a page-scoped user id.
func (g *GraphClient) UserProfile(ctx context.Context, psid string) (*UserProfile, error) {
	query := url.Values{}
	query.Set("fields", "first_name,last_name,profile_pic,locale,timezone,gender")
	var profile UserProfile
	if err := g.call(ctx, http.MethodGet, graphVersion, "/"+psid, query, nil, &profile); err != nil {
		return nil, err
	}
	if profile.ID == "" {
		profile.ID = psid
	}
	return &profile, nil
}

// Me returns the id and name of the page the access token belongs to.
func (g *GraphClient) Me(ctx context.Context) (id, name string, err error) {
	var resp struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := g.call(ctx, http.MethodGet, graphVersion, "/me", nil, nil, &resp); err != nil {
		return "", "", err
	}
	return resp.ID, resp.Name, nil
}

// CreateLabel registers a custom label and returns its id.
func (g *GraphClient) CreateLabel(ctx context.Context, name string) (string, error) {
	body := struct {
		Name string `json:"name"`
	}{name}
	var resp struct {
		ID string `json:"id"`
	}
	if err := g.call(ctx, http.MethodPost, labelsVersion, "/me/custom_labels", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// DeleteLabel removes a custom label by id.
func (g *GraphClient) DeleteLabel(ctx context.Context, labelID string) error {
	return g.call(ctx, http.MethodDelete, labelsVersion, "/"+labelID, nil, nil, nil)
}

// LabelUser associates a user with a custom label.
func (g *GraphClient) LabelUser(ctx context.Context, labelID, psid string) error {
	body := struct {
		User string `json:"user"`
	}{psid}
	return g.call(ctx, http.MethodPost, labelsVersion, "/"+labelID+"/label", nil, body, nil)
}

// UnlabelUser removes a user from a custom label.
func (g *GraphClient) UnlabelUser(ctx context.Context, labelID, psid string) error {
	query := url.Values{}
	query.Set("user", psid)
	return g.call(ctx, http.MethodDelete, labelsVersion, "/"+labelID+"/label", query, nil, nil)
}

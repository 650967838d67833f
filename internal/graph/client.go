package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/graphmail/internal/instrumentation"
	"github.com/teemow/graphmail/internal/logging"
)

// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// DefaultTop is the page size used when a caller passes top <= 0.
const DefaultTop = 10

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 64 * 1024

// Config configures a Client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// AccessToken is sent as the bearer token on every request.
	AccessToken string

	// HTTPClient defaults to a client with a 30 second timeout.
	HTTPClient *http.Client

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Client calls the Graph mail endpoints of the signed-in user.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
}

// NewClient returns a Client for cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		httpClient:  cfg.HTTPClient,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// newRequest builds an authenticated request. body, when non-nil, is sent
// as JSON.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do sends req and decodes the response into out when the status equals
// want. Any other status becomes an *APIError.
func (c *Client) do(ctx context.Context, op string, req *http.Request, want int, out any, attrs ...attribute.KeyValue) (err error) {
	ctx, span := instrumentation.StartGraphSpan(ctx, op, attrs...)
	defer span.End()

	start := time.Now()
	logger := logging.WithOperation(c.logger, op)
	defer func() {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		c.metrics.RecordGraphAPIOperation(ctx, op, status, time.Since(start))
		logger.Debug("graph call finished",
			logging.Status(status),
			slog.Duration(logging.KeyDuration, time.Since(start)),
			logging.Err(err))
	}()

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int(instrumentation.SpanAttrHTTPStatus, resp.StatusCode))

	if resp.StatusCode != want {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, body any, want int, out any, attrs ...attribute.KeyValue) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	return c.do(ctx, op, req, want, out, attrs...)
}

func topQuery(top int) url.Values {
	if top <= 0 {
		top = DefaultTop
	}
	return url.Values{"$top": []string{strconv.Itoa(top)}}
}

func messagePath(id string, suffix ...string) string {
	p := "/me/messages/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func resourceAttr(id string) attribute.KeyValue {
	return attribute.String(instrumentation.SpanAttrResourceID, id)
}

// ListInbox returns up to top messages from the Inbox folder.
func (c *Client) ListInbox(ctx context.Context, top int) ([]Message, error) {
	var resp listResponse[Message]
	if err := c.call(ctx, "list_inbox", http.MethodGet, "/me/mailFolders/Inbox/messages", topQuery(top), nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// ListMessages returns up to top messages across all folders.
func (c *Client) ListMessages(ctx context.Context, top int) ([]Message, error) {
	var resp listResponse[Message]
	if err := c.call(ctx, "list_messages", http.MethodGet, "/me/messages", topQuery(top), nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Search runs a full-text $search over all messages.
func (c *Client) Search(ctx context.Context, query string, top int) ([]Message, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is required")
	}

	q := topQuery(top)
	// $search takes a quoted phrase; embedded quotes would end it early
	q.Set("$search", `"`+strings.ReplaceAll(query, `"`, `\"`)+`"`)

	var resp listResponse[Message]
	if err := c.call(ctx, "search_messages", http.MethodGet, "/me/messages", q, nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// SendMail sends msg and saves a copy to Sent Items.
func (c *Client) SendMail(ctx context.Context, msg OutgoingMessage) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}

	attachments, err := LoadAttachments(msg.AttachmentPaths)
	if err != nil {
		return err
	}

	body := sendMailRequest{
		Message: &Message{
			Subject:      msg.Subject,
			Body:         textBody(msg.Body),
			ToRecipients: recipients(msg.To),
			Attachments:  attachments,
		},
		SaveToSentItems: true,
	}
	return c.call(ctx, "send_mail", http.MethodPost, "/me/sendMail", nil, body, http.StatusAccepted, nil)
}

// Reply creates a reply draft for messageID with body and sends it.
func (c *Client) Reply(ctx context.Context, messageID, body string) error {
	var draft Message
	req := replyRequest{Message: &Message{Body: textBody(body)}}
	if err := c.call(ctx, "create_reply", http.MethodPost, messagePath(messageID, "createReply"), nil, req, http.StatusCreated, &draft, resourceAttr(messageID)); err != nil {
		return err
	}
	if draft.ID == "" {
		return fmt.Errorf("create_reply response carried no message id")
	}
	return c.SendDraft(ctx, draft.ID)
}

// CreateDraft saves msg in the Drafts folder and returns it.
func (c *Client) CreateDraft(ctx context.Context, msg OutgoingMessage) (*Message, error) {
	attachments, err := LoadAttachments(msg.AttachmentPaths)
	if err != nil {
		return nil, err
	}

	draft := &Message{
		Subject:      msg.Subject,
		Body:         textBody(msg.Body),
		ToRecipients: recipients(msg.To),
		Attachments:  attachments,
	}

	var created Message
	if err := c.call(ctx, "create_draft", http.MethodPost, "/me/messages", nil, draft, http.StatusCreated, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// SendDraft sends an existing draft.
func (c *Client) SendDraft(ctx context.Context, draftID string) error {
	return c.call(ctx, "send_draft", http.MethodPost, messagePath(draftID, "send"), nil, nil, http.StatusAccepted, nil, resourceAttr(draftID))
}

// DeleteMessage moves a message to Deleted Items.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	return c.call(ctx, "delete_message", http.MethodDelete, messagePath(messageID), nil, nil, http.StatusNoContent, nil, resourceAttr(messageID))
}

// MoveMessage moves a message into folderID and returns the moved copy,
// which has a new id.
func (c *Client) MoveMessage(ctx context.Context, messageID, folderID string) (*Message, error) {
	var moved Message
	err := c.call(ctx, "move_message", http.MethodPost, messagePath(messageID, "move"), nil,
		moveRequest{DestinationID: folderID}, http.StatusCreated, &moved, resourceAttr(messageID))
	if err != nil {
		return nil, err
	}
	return &moved, nil
}

// ListAttachments returns the attachments of a message including content.
func (c *Client) ListAttachments(ctx context.Context, messageID string) ([]Attachment, error) {
	var resp listResponse[Attachment]
	if err := c.call(ctx, "list_attachments", http.MethodGet, messagePath(messageID, "attachments"), nil, nil, http.StatusOK, &resp, resourceAttr(messageID)); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// CreateFolder creates a top-level mail folder.
func (c *Client) CreateFolder(ctx context.Context, name string) (*MailFolder, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("folder name is required")
	}

	var folder MailFolder
	if err := c.call(ctx, "create_folder", http.MethodPost, "/me/mailFolders", nil, MailFolder{DisplayName: name}, http.StatusCreated, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// ListFolders returns up to top top-level mail folders.
func (c *Client) ListFolders(ctx context.Context, top int) ([]MailFolder, error) {
	var resp listResponse[MailFolder]
	if err := c.call(ctx, "list_folders", http.MethodGet, "/me/mailFolders", topQuery(top), nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.call(ctx, "get_me", http.MethodGet, "/me", nil, nil, http.StatusOK, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

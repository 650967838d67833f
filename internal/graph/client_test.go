package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Auth   string
	Body   map[string]any
}

// fakeGraph answers each "METHOD /path" with a fixed status and body and
// records what it received.
type fakeGraph struct {
	t         *testing.T
	responses map[string]fakeResponse
	requests  []recordedRequest
}

type fakeResponse struct {
	status int
	body   string
}

func (f *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Auth:   r.Header.Get("Authorization"),
	}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		require.NoError(f.t, json.Unmarshal(data, &rec.Body))
	}
	f.requests = append(f.requests, rec)

	resp, ok := f.responses[r.Method+" "+r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":"ResourceNotFound"}}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	fmt.Fprint(w, resp.body)
}

func newTestClient(t *testing.T, responses map[string]fakeResponse) (*Client, *fakeGraph) {
	t.Helper()

	fake := &fakeGraph{t: t, responses: responses}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL:     srv.URL + "/v1.0/",
		AccessToken: "test-token",
		HTTPClient:  srv.Client(),
	})
	require.NoError(t, err)
	return client, fake
}

const twoMessages = `{"value":[
	{"id":"m1","subject":"Hello","from":{"emailAddress":{"address":"alice@example.com"}}},
	{"id":"m2"}
]}`

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(Config{AccessToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.NotNil(t, client.httpClient)
}

func TestListInbox(t *testing.T) {
	client, fake := newTestClient(t, map[string]fakeResponse{
		"GET /v1.0/me/mailFolders/Inbox/messages": {http.StatusOK, twoMessages},
	})

	messages, err := client.ListInbox(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "alice@example.com", messages[0].SenderAddress())
	assert.Equal(t, "Hello", messages[0].SubjectOrDefault())
	assert.Equal(t, "?", messages[1].SenderAddress())
	assert.Equal(t, "No Subject", messages[1].SubjectOrDefault())

	require.Len(t, fake.requests, 1)
	assert.Equal(t, "Bearer test-token", fake.requests[0].Auth)
	assert.Equal(t, []string{"10"}, fake.requests[0].Query["$top"])
}

func TestListMessages(t *testing.T) {
	client, fake := newTestClient(t, map[string]fakeResponse{
		"GET /v1.0/me/messages": {http.StatusOK, twoMessages},
	})

	messages, err := client.ListMessages(context.Background(), 25)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, []string{"25"}, fake.requests[0].Query["$top"])
}

func TestSearch(t *testing.T) {
	client, fake := newTestClient(t, map[string]fakeResponse{
		"GET /v1.0/me/messages": {http.StatusOK, twoMessages},
	})

	_, err := client.Search(context.Background(), "quarterly report", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{`"quarterly report"`}, fake.requests[0].Query["$search"])
	assert.Equal(t, []string{"5"}, fake.requests[0].Query["$top"])

	_, err = client.Search(context.Background(), "  ", 5)
	assert.Error(t, err)
}

func TestSendMail(t *testing.T) {
	dir := t.TempDir()
	attachment := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(attachment, []byte("hello"), 0600))

	client, fake := newTestClient(t, map[string]fakeResponse{
		"POST /v1.0/me/sendMail": {http.StatusAccepted, ""},
	})

	err := client.SendMail(context.Background(), OutgoingMessage{
		To:              []string{"bob@example.com"},
		Subject:         "Hi",
		Body:            "Body text",
		AttachmentPaths: []string{attachment},
	})
	require.NoError(t, err)

	body := fake.requests[0].Body
	assert.Equal(t, true, body["saveToSentItems"])

	msg := body["message"].(map[string]any)
	assert.Equal(t, "Hi", msg["subject"])
	assert.Equal(t, map[string]any{"contentType": "Text", "content": "Body text"}, msg["body"])

	to := msg["toRecipients"].([]any)
	require.Len(t, to, 1)
	assert.Equal(t, "bob@example.com", to[0].(map[string]any)["emailAddress"].(map[string]any)["address"])

	atts := msg["attachments"].([]any)
	require.Len(t, atts, 1)
	att := atts[0].(map[string]any)
	assert.Equal(t, FileAttachmentType, att["@odata.type"])
	assert.Equal(t, "notes.txt", att["name"])
	assert.Equal(t, "aGVsbG8=", att["contentBytes"])
}

func TestSendMail_APIError(t *testing.T) {
	errBody := `{"error":{"code":"ErrorInvalidRecipients","message":"At least one recipient is not valid."}}`
	client, _ := newTestClient(t, map[string]fakeResponse{
		"POST /v1.0/me/sendMail": {http.StatusBadRequest, errBody},
	})

	err := client.SendMail(context.Background(), OutgoingMessage{To: []string{"nobody"}, Subject: "s", Body: "b"})
	require.Error(t, err)

	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "send_mail", apiErr.Op)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, errBody, apiErr.Body)
	assert.Contains(t, err.Error(), "ErrorInvalidRecipients")
}

func TestSendMail_Validation(t *testing.T) {
	client, fake := newTestClient(t, nil)

	err := client.SendMail(context.Background(), OutgoingMessage{Subject: "s"})
	assert.Error(t, err)

	err = client.SendMail(context.Background(), OutgoingMessage{
		To:              []string{"bob@example.com"},
		AttachmentPaths: []string{filepath.Join(t.TempDir(), "missing.pdf")},
	})
	assert.Error(t, err)
	assert.Empty(t, fake.requests)
}

func TestReply(t *testing.T) {
	client, fake := newTestClient(t, map[string]fakeResponse{
		"POST /v1.0/me/messages/m1/createReply": {http.StatusCreated, `{"id":"reply-1"}`},
		"POST /v1.0/me/messages/reply-1/send":   {http.StatusAccepted, ""},
	})

	require.NoError(t, client.Reply(context.Background(), "m1", "Thanks!"))
	require.Len(t, fake.requests, 2)

	msg := fake.requests[0].Body["message"].(map[string]any)
	assert.Equal(t, "Thanks!", msg["body"].(map[string]any)["content"])
	assert.Equal(t, "/v1.0/me/messages/reply-1/send", fake.requests[1].Path)
}

func TestReply_CreateReplyFails(t *testing.T) {
	client, fake := newTestClient(t, map[string]fakeResponse{
		"POST /v1.0/me/messages/m1/createReply": {http.StatusNotFound, `{"error":{"code":"ErrorItemNotFound"}}`},
	})

	err := client.Reply(context.Background(), "m1", "Thanks!")
	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "create_reply", apiErr.Op)
	assert.Len(t, fake.requests, 1)
}

func TestCreateDraftAndSend(t *testing.T) {
	client, fake := newTestClient(t, map[string]fakeResponse{
		"POST /v1.0/me/messages":              {http.StatusCreated, `{"id":"draft-1","isDraft":true}`},
		"POST /v1.0/me/messages/draft-1/send": {http.StatusAccepted, ""},
	})

	draft, err := client.CreateDraft(context.Background(), OutgoingMessage{
		To:      []string{"bob@example.com"},
		Subject: "Draft",
		Body:    "Later",
	})
	require.NoError(t, err)
	assert.Equal(t, "draft-1", draft.ID)
	assert.Equal(t, "Draft", fake.requests[0].Body["subject"])

	require.NoError(t, client.SendDraft(context.Background(), draft.ID))
}

func TestDeleteMessage(t *testing.T) {
	client, fake := newTestClient(t, map[string]fakeResponse{
		"DELETE /v1.0/me/messages/m1": {http.StatusNoContent, ""},
	})

	require.NoError(t, client.DeleteMessage(context.Background(), "m1"))
	assert.Equal(t, http.MethodDelete, fake.requests[0].Method)

	_, ok := IsAPIError(client.DeleteMessage(context.Background(), "missing"))
	assert.True(t, ok)
}

func TestMoveMessage(t *testing.T) {
	client, fake := newTestClient(t, map[string]fakeResponse{
		"POST /v1.0/me/messages/m1/move": {http.StatusCreated, `{"id":"m1-moved","parentFolderId":"archive"}`},
	})

	moved, err := client.MoveMessage(context.Background(), "m1", "archive")
	require.NoError(t, err)
	assert.Equal(t, "m1-moved", moved.ID)
	assert.Equal(t, map[string]any{"destinationId": "archive"}, fake.requests[0].Body)
}

func TestCreateFolder(t *testing.T) {
	client, fake := newTestClient(t, map[string]fakeResponse{
		"POST /v1.0/me/mailFolders": {http.StatusCreated, `{"id":"f1","displayName":"Receipts"}`},
	})

	folder, err := client.CreateFolder(context.Background(), "Receipts")
	require.NoError(t, err)
	assert.Equal(t, "f1", folder.ID)
	assert.Equal(t, map[string]any{"displayName": "Receipts"}, fake.requests[0].Body)

	_, err = client.CreateFolder(context.Background(), "")
	assert.Error(t, err)
}

func TestCreateFolder_Conflict(t *testing.T) {
	client, _ := newTestClient(t, map[string]fakeResponse{
		"POST /v1.0/me/mailFolders": {http.StatusConflict, `{"error":{"code":"ErrorFolderExists"}}`},
	})

	_, err := client.CreateFolder(context.Background(), "Receipts")
	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
}

func TestListFolders(t *testing.T) {
	client, _ := newTestClient(t, map[string]fakeResponse{
		"GET /v1.0/me/mailFolders": {http.StatusOK, `{"value":[{"id":"inbox","displayName":"Inbox","totalItemCount":3,"unreadItemCount":1}]}`},
	})

	folders, err := client.ListFolders(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "Inbox", folders[0].DisplayName)
	assert.Equal(t, 1, folders[0].UnreadItemCount)
}

func TestMe(t *testing.T) {
	client, _ := newTestClient(t, map[string]fakeResponse{
		"GET /v1.0/me": {http.StatusOK, `{"id":"u1","displayName":"Alice","userPrincipalName":"alice@example.com"}`},
	})

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.DisplayName)
	assert.Equal(t, "alice@example.com", user.UserPrincipalName)
}

func TestDecodeError(t *testing.T) {
	client, _ := newTestClient(t, map[string]fakeResponse{
		"GET /v1.0/me": {http.StatusOK, `not json`},
	})

	_, err := client.Me(context.Background())
	require.Error(t, err)
	_, ok := IsAPIError(err)
	assert.False(t, ok)
}

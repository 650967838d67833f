package graph

import "time"

// OData types of message attachments.
const (
	FileAttachmentType      = "#microsoft.graph.fileAttachment"
	ItemAttachmentType      = "#microsoft.graph.itemAttachment"
	ReferenceAttachmentType = "#microsoft.graph.referenceAttachment"
)

// Body content types.
const (
	ContentTypeText = "Text"
	ContentTypeHTML = "HTML"
)

// EmailAddress is a name and SMTP address pair.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// Recipient wraps an EmailAddress as Graph expects in recipient lists.
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// ItemBody is the body of a message.
type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Message is an Outlook message.
type Message struct {
	ID               string       `json:"id,omitempty"`
	Subject          string       `json:"subject,omitempty"`
	BodyPreview      string       `json:"bodyPreview,omitempty"`
	Body             *ItemBody    `json:"body,omitempty"`
	From             *Recipient   `json:"from,omitempty"`
	ToRecipients     []Recipient  `json:"toRecipients,omitempty"`
	CcRecipients     []Recipient  `json:"ccRecipients,omitempty"`
	ReceivedDateTime *time.Time   `json:"receivedDateTime,omitempty"`
	IsRead           bool         `json:"isRead,omitempty"`
	IsDraft          bool         `json:"isDraft,omitempty"`
	HasAttachments   bool         `json:"hasAttachments,omitempty"`
	ParentFolderID   string       `json:"parentFolderId,omitempty"`
	Attachments      []Attachment `json:"attachments,omitempty"`
}

// SenderAddress returns the sender's address or "?" when Graph omitted it.
func (m *Message) SenderAddress() string {
	if m.From == nil || m.From.EmailAddress.Address == "" {
		return "?"
	}
	return m.From.EmailAddress.Address
}

// SubjectOrDefault returns the subject or "No Subject".
func (m *Message) SubjectOrDefault() string {
	if m.Subject == "" {
		return "No Subject"
	}
	return m.Subject
}

// Attachment is a message attachment. ContentBytes is base64 and only set
// for file attachments.
type Attachment struct {
	ODataType    string `json:"@odata.type"`
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType,omitempty"`
	Size         int64  `json:"size,omitempty"`
	IsInline     bool   `json:"isInline,omitempty"`
	ContentBytes string `json:"contentBytes,omitempty"`
}

// MailFolder is a mailbox folder.
type MailFolder struct {
	ID               string `json:"id,omitempty"`
	DisplayName      string `json:"displayName"`
	ParentFolderID   string `json:"parentFolderId,omitempty"`
	ChildFolderCount int    `json:"childFolderCount,omitempty"`
	TotalItemCount   int    `json:"totalItemCount,omitempty"`
	UnreadItemCount  int    `json:"unreadItemCount,omitempty"`
}

// User is the signed-in user's profile.
type User struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// OutgoingMessage describes a message to send or save as a draft.
type OutgoingMessage struct {
	To      []string
	Subject string
	Body    string

	// AttachmentPaths are local files sent as file attachments.
	AttachmentPaths []string
}

type listResponse[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink,omitempty"`
}

type sendMailRequest struct {
	Message         *Message `json:"message"`
	SaveToSentItems bool     `json:"saveToSentItems"`
}

type replyRequest struct {
	Message *Message `json:"message"`
}

type moveRequest struct {
	DestinationID string `json:"destinationId"`
}

func recipients(addresses []string) []Recipient {
	out := make([]Recipient, 0, len(addresses))
	for _, addr := range addresses {
		out = append(out, Recipient{EmailAddress: EmailAddress{Address: addr}})
	}
	return out
}

func textBody(content string) *ItemBody {
	return &ItemBody{ContentType: ContentTypeText, Content: content}
}

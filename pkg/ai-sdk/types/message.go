package types

// Message represents a single message sent to a model
type Message struct {
	Role        MessageRole  `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// MessageRole defines the role of a message sender
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Attachment is binary media sent alongside the text of a message.
// Providers that support vision render image attachments as image blocks.
type Attachment struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// IsImage reports whether the attachment carries an image
func (a Attachment) IsImage() bool {
	return len(a.MIMEType) > 6 && a.MIMEType[:6] == "image/"
}

// NewUserMessage builds a user message with optional attachments
func NewUserMessage(content string, attachments ...Attachment) Message {
	return Message{
		Role:        RoleUser,
		Content:     content,
		Attachments: attachments,
	}
}

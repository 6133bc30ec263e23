package models

import "encoding/json"

// Author is the self-declared identity of a message sender.
// Anyone who can restate the same nickname and QQ number is treated as the author.
type Author struct {
	// Nickname is the display name, 1-20 characters
	Nickname string `json:"nickname"`

	// QQ is the numeric external id, 5-15 digits
	QQ string `json:"qq"`
}

// Key returns the user key "nickname|qq" used to attribute reactions.
func (a Author) Key() string {
	return a.Nickname + "|" + a.QQ
}

// Message is one entry of the chat log as stored in a shard file.
// It is immutable once appended; revocations and reactions live in side tables.
type Message struct {
	// ID is the globally unique message identifier
	ID string `json:"id"`

	// Seq is assigned at append time and only used for ordering hints
	Seq uint64 `json:"seq,omitempty"`

	// User is the author of the message
	User Author `json:"user"`

	// Text is the optional message body
	Text string `json:"text,omitempty"`

	// ImagePaths are attachment file names under pic/
	ImagePaths []string `json:"imagePaths,omitempty"`

	// ImageDataURLs are inline data: URLs
	ImageDataURLs []string `json:"imageDataUrls,omitempty"`

	// CreatedAt is the append time in epoch milliseconds
	CreatedAt int64 `json:"createdAt"`
}

// Attachments returns every attachment reference in stored order,
// file names first, then inline data.
func (m Message) Attachments() []string {
	n := len(m.ImagePaths) + len(m.ImageDataURLs)
	if n == 0 {
		return nil
	}
	out := make([]string, 0, n)
	out = append(out, m.ImagePaths...)
	out = append(out, m.ImageDataURLs...)
	return out
}

// ReactionCount is the aggregated count of one emoji on a message.
type ReactionCount struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// MessageView is a Message with its side-table state merged in.
// A revoked view never carries text or attachments.
type MessageView struct {
	Message
	Revoked   bool            `json:"revoked"`
	Reactions []ReactionCount `json:"reactions"`
}

// DigitString is a string field that also accepts a bare JSON number,
// since clients send the QQ number either way.
type DigitString string

// UnmarshalJSON implements json.Unmarshaler
func (d *DigitString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = DigitString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*d = DigitString(n.String())
	return nil
}

// SendMessageRequest is the parsed body of a post to /api/messages
type SendMessageRequest struct {
	Nickname string      `json:"nickname"`
	QQ       DigitString `json:"qq"`
	Text     string      `json:"text"`
}

// RevokeRequest is the request body for revoking a message
type RevokeRequest struct {
	ID       string      `json:"id"`
	Nickname string      `json:"nickname"`
	QQ       DigitString `json:"qq"`
}

// ReactRequest is the request body for toggling a reaction
type ReactRequest struct {
	ID       string      `json:"id"`
	Emoji    string      `json:"emoji"`
	Nickname string      `json:"nickname"`
	QQ       DigitString `json:"qq"`
}

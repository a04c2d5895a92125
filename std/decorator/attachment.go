package decorator

import (
	"encoding/base64"
	"errors"
	"fmt"
)

const MimeTypeJSON = "application/json"

var ErrAttachmentNotFound = errors.New("attachment not found")

// Attachment is the element of the <field>~attach decorator.
type Attachment struct {
	ID       string         `json:"@id,omitempty"`
	MimeType string         `json:"mime-type,omitempty"`
	Data     AttachmentData `json:"data"`
}

type AttachmentData struct {
	Base64 string `json:"base64,omitempty"`
}

// PleaseAck is the ~please_ack decorator. Its presence is what matters.
type PleaseAck struct{}

// NewAttachment returns attachment list of a JSON payload.
func NewAttachment(id string, data []byte) []Attachment {
	return []Attachment{{
		ID:       id,
		MimeType: MimeTypeJSON,
		Data: AttachmentData{
			Base64: base64.StdEncoding.EncodeToString(data),
		},
	}}
}

// Bytes returns the decoded payload.
func (a Attachment) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(a.Data.Base64)
	if err != nil {
		return nil, fmt.Errorf("attachment %s: %w", a.ID, err)
	}
	return data, nil
}

// AttachmentBytes returns the payload of the first attachment.
func AttachmentBytes(attachments []Attachment) ([]byte, error) {
	if len(attachments) == 0 {
		return nil, ErrAttachmentNotFound
	}
	return attachments[0].Bytes()
}

package model

import "strings"

type Attachment struct {
	Name       string `json:"name"`
	MimeType   string `json:"mime_type"`
	DataBase64 string `json:"data_base64"`
}

func (a Attachment) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.MimeType)), "image/")
}

// ChatRequest is the body of POST /api/chat. VFS carries the project files the
// assistant is asked to edit.
type ChatRequest struct {
	Message       string            `json:"message"`
	Model         string            `json:"model"`
	ModelProvider ModelProvider     `json:"model_provider,omitempty"`
	APIKey        string            `json:"api_key,omitempty"`
	SystemPrompt  string            `json:"system_prompt,omitempty"`
	Attachments   []Attachment      `json:"attachments,omitempty"`
	VFS           map[string]string `json:"vfs,omitempty"`
}

// ValidateAttachments rejects any attachment that is not an image.
func (r ChatRequest) ValidateAttachments() error {
	for _, attachment := range r.Attachments {
		if !attachment.IsImage() {
			return &AttachmentError{Name: attachment.Name, MimeType: attachment.MimeType}
		}
	}
	return nil
}

package model

import (
	"regexp"
	"time"
)

var deviceCodePattern = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{5}$`)

func IsDeviceCode(code string) bool {
	return deviceCodePattern.MatchString(code)
}

// CodexConnectState tracks the third-party device authorization. It is kept in
// memory only.
type CodexConnectState struct {
	DeviceCode      string
	VerificationURL string
	Authenticated   bool
	Message         string
	CodeExpiresAt   time.Time
	CooldownUntil   time.Time
}

type CodexStatus struct {
	Authenticated   bool   `json:"authenticated"`
	Message         string `json:"message"`
	Code            string `json:"code,omitempty"`
	VerificationURL string `json:"verification_url,omitempty"`
}

type DeviceAuthStart struct {
	Authenticated     bool    `json:"authenticated"`
	Code              *string `json:"code"`
	VerificationURL   string  `json:"verification_url"`
	Output            string  `json:"output"`
	RetryAfterSeconds *int    `json:"retry_after_seconds"`
}

type DisconnectResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

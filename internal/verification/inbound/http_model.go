package inbound

import "time"

type SendOTPRequest struct {
	UserID      string `json:"user_id"`
	Destination string `json:"destination"`
	Channel     string `json:"channel"`
}

type SendOTPResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
	Delivered bool      `json:"delivered"`
	Provider  string    `json:"provider,omitempty"`
	DebugCode string    `json:"debug_code,omitempty"`
	DebugNote string    `json:"debug_note,omitempty"`

	waitSeconds int64
}

func (r SendOTPResponse) Message() string {
	if r.waitSeconds > 0 {
		return "A code was sent recently, please wait before requesting another."
	}
	return "Verification code sent."
}

func (r SendOTPResponse) Meta() map[string]any {
	if r.waitSeconds <= 0 {
		return nil
	}
	return map[string]any{"wait_seconds": r.waitSeconds}
}

type VerifyOTPRequest struct {
	UserID  string `json:"user_id"`
	Code    string `json:"code"`
	Channel string `json:"channel"`
}

type VerifyOTPResponse struct {
	Verified      bool `json:"verified"`
	FullyVerified bool `json:"fully_verified"`
}

func (VerifyOTPResponse) Message() string {
	return "Verification successful."
}

type ResendStatusResponse struct {
	CanSend     bool  `json:"can_send"`
	WaitSeconds int64 `json:"wait_seconds"`
}

type ProgressResponse struct {
	EmailVerified  bool   `json:"email_verified"`
	MobileVerified bool   `json:"mobile_verified"`
	FullyVerified  bool   `json:"fully_verified"`
	Complete       bool   `json:"complete"`
	Policy         string `json:"policy"`
}

type CacheStatusResponse struct {
	Found      bool       `json:"found"`
	Code       string     `json:"code,omitempty"`
	Status     string     `json:"status,omitempty"`
	Attempts   int32      `json:"attempts"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastSentAt *time.Time `json:"last_sent_at,omitempty"`
}

type ClearCacheResponse struct{}

func (ClearCacheResponse) Message() string {
	return "Verification cache cleared."
}

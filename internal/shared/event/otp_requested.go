package event

const OTPRequestedDestination string = "otp_requested"

type OTPRequestedMessage struct {
	UserID      string `json:"user_id"`
	Channel     string `json:"channel"`
	Destination string `json:"destination"`
	Provider    string `json:"provider,omitempty"`
	Delivered   bool   `json:"delivered"`
	ExpiresAt   int64  `json:"expires_at"`
}

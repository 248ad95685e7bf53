package event

const ContactVerifiedDestination string = "contact_verified"
const ContactVerifiedConsumerNotification string = "contact_verified_notification"

type ContactVerifiedMessage struct {
	UserID        string `json:"user_id"`
	Channel       string `json:"channel"`
	Destination   string `json:"destination,omitempty"`
	FullyVerified bool   `json:"fully_verified"`
	VerifiedAt    int64  `json:"verified_at"`
}

package entity

// Channel identifies the contact channel a one-time code is delivered over.
type Channel int16

const (
	// ChannelUnknown means the channel is not known / not set.
	ChannelUnknown Channel = 0

	// ChannelEmail delivers codes to an email address.
	ChannelEmail Channel = 1

	// ChannelMobile delivers codes to a phone number via SMS.
	ChannelMobile Channel = 2
)

func (c Channel) String() string {
	switch c {
	case ChannelEmail:
		return "email"
	case ChannelMobile:
		return "mobile"
	default:
		return "unknown"
	}
}

func (c Channel) IsUnknown() bool {
	switch c {
	case ChannelEmail, ChannelMobile:
		return false
	default:
		return true
	}
}

// ParseChannel maps a wire value to a Channel. Unrecognized values map to
// ChannelUnknown so callers can reject them through validation.
func ParseChannel(raw string) Channel {
	switch raw {
	case "email":
		return ChannelEmail
	case "mobile":
		return ChannelMobile
	default:
		return ChannelUnknown
	}
}

// CacheStatus is the lifecycle state of a process-local code entry.
type CacheStatus string

const (
	CacheStatusPending  CacheStatus = "pending"
	CacheStatusSent     CacheStatus = "sent"
	CacheStatusVerified CacheStatus = "verified"
	CacheStatusExpired  CacheStatus = "expired"
)

// CompletionPolicy controls which channels a user must verify before being
// considered fully verified.
type CompletionPolicy string

const (
	CompletionEmailRequired  CompletionPolicy = "email_required"
	CompletionMobileRequired CompletionPolicy = "mobile_required"
	CompletionEitherRequired CompletionPolicy = "either_required"
)

// ParseCompletionPolicy maps a config value to a CompletionPolicy. Mobile is
// the default requirement when the value is absent or unrecognized.
func ParseCompletionPolicy(raw string) CompletionPolicy {
	switch CompletionPolicy(raw) {
	case CompletionEmailRequired, CompletionMobileRequired, CompletionEitherRequired:
		return CompletionPolicy(raw)
	default:
		return CompletionMobileRequired
	}
}

// Complete reports whether the given per-channel flags satisfy the policy.
func (p CompletionPolicy) Complete(emailVerified, mobileVerified bool) bool {
	switch p {
	case CompletionEmailRequired:
		return emailVerified
	case CompletionEitherRequired:
		return emailVerified || mobileVerified
	default:
		return mobileVerified
	}
}

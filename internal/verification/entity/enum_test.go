package entity

import "testing"

func TestParseChannel(t *testing.T) {
	tests := []struct {
		raw  string
		want Channel
	}{
		{"email", ChannelEmail},
		{"mobile", ChannelMobile},
		{"sms", ChannelUnknown},
		{"", ChannelUnknown},
	}

	for _, tt := range tests {
		if got := ParseChannel(tt.raw); got != tt.want {
			t.Errorf("ParseChannel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestChannelString(t *testing.T) {
	if ChannelEmail.String() != "email" || ChannelMobile.String() != "mobile" || ChannelUnknown.String() != "unknown" {
		t.Fatal("unexpected channel names")
	}
	if !ChannelUnknown.IsUnknown() || ChannelEmail.IsUnknown() {
		t.Fatal("unexpected unknown classification")
	}
}

func TestParseCompletionPolicy(t *testing.T) {
	if got := ParseCompletionPolicy("email_required"); got != CompletionEmailRequired {
		t.Fatalf("got %s", got)
	}
	if got := ParseCompletionPolicy("nonsense"); got != CompletionMobileRequired {
		t.Fatalf("expected default policy, got %s", got)
	}
	if got := ParseCompletionPolicy(""); got != CompletionMobileRequired {
		t.Fatalf("expected default policy, got %s", got)
	}
}

func TestCompletionPolicyComplete(t *testing.T) {
	tests := []struct {
		policy CompletionPolicy
		email  bool
		mobile bool
		want   bool
	}{
		{CompletionMobileRequired, true, false, false},
		{CompletionMobileRequired, false, true, true},
		{CompletionEmailRequired, true, false, true},
		{CompletionEmailRequired, false, true, false},
		{CompletionEitherRequired, true, false, true},
		{CompletionEitherRequired, false, true, true},
		{CompletionEitherRequired, false, false, false},
	}

	for _, tt := range tests {
		if got := tt.policy.Complete(tt.email, tt.mobile); got != tt.want {
			t.Errorf("%s.Complete(%v, %v) = %v, want %v", tt.policy, tt.email, tt.mobile, got, tt.want)
		}
	}
}

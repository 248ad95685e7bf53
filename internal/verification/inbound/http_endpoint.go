package inbound

import (
	"github.com/veriflowhq/veriflow/internal/pkg/goerror"
	"github.com/veriflowhq/veriflow/internal/pkg/jwt"
	"github.com/veriflowhq/veriflow/internal/pkg/router"
	"github.com/veriflowhq/veriflow/internal/verification/usecase"
)

// HTTPEndpoint exposes HTTP handlers for the verification flow.
type HTTPEndpoint struct {
	uc uc
}

// SendOTP issues and delivers a one-time code for a contact channel.
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SendOTP(r.Context(), usecase.SendOTPInput{
		UserID:      req.UserID,
		Destination: req.Destination,
		Channel:     req.Channel,
	})
	if err != nil {
		return nil, err
	}

	return SendOTPResponse{
		ExpiresAt:   resp.ExpiresAt,
		Delivered:   resp.Delivered,
		Provider:    resp.Provider,
		DebugCode:   resp.DebugCode,
		DebugNote:   resp.DebugNote,
		waitSeconds: resp.WaitSeconds,
	}, nil
}

// VerifyOTP checks a submitted code against the active challenge.
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		UserID:  req.UserID,
		Code:    req.Code,
		Channel: req.Channel,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{
		Verified:      resp.Verified,
		FullyVerified: resp.FullyVerified,
	}, nil
}

// ResendStatus reports whether a new code can be requested right now.
func (h *HTTPEndpoint) ResendStatus(r *router.Request) (any, error) {
	resp, err := h.uc.CanResend(r.Context(), usecase.CanResendInput{
		UserID:  r.GetQuery("user_id"),
		Channel: r.GetQuery("channel"),
	})
	if err != nil {
		return nil, err
	}

	return ResendStatusResponse{
		CanSend:     resp.CanSend,
		WaitSeconds: resp.WaitSeconds,
	}, nil
}

// Progress returns the authenticated user's verification progress.
func (h *HTTPEndpoint) Progress(r *router.Request) (any, error) {
	clm := jwt.GetAuth(r.Context())
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	resp, err := h.uc.Progress(r.Context(), usecase.ProgressInput{UserID: clm.Subject})
	if err != nil {
		return nil, err
	}

	return ProgressResponse{
		EmailVerified:  resp.EmailVerified,
		MobileVerified: resp.MobileVerified,
		FullyVerified:  resp.FullyVerified,
		Complete:       resp.Complete,
		Policy:         string(resp.Policy),
	}, nil
}

// CacheStatus returns a masked snapshot of the in-memory entry for a user.
func (h *HTTPEndpoint) CacheStatus(r *router.Request) (any, error) {
	resp, err := h.uc.CacheStatus(r.Context(), usecase.CacheStatusInput{
		UserID:  r.GetQuery("user_id"),
		Channel: r.GetQuery("channel"),
	})
	if err != nil {
		return nil, err
	}

	out := CacheStatusResponse{
		Found:    resp.Found,
		Code:     resp.MaskedCode,
		Status:   string(resp.Status),
		Attempts: resp.Attempts,
	}
	if resp.Found {
		out.ExpiresAt = &resp.ExpiresAt
		out.LastSentAt = &resp.LastSentAt
	}

	return out, nil
}

// ClearCache drops the in-memory entry and durable challenges for a user.
func (h *HTTPEndpoint) ClearCache(r *router.Request) (any, error) {
	return ClearCacheResponse{}, h.uc.ClearCache(r.Context(), usecase.ClearCacheInput{
		UserID:  r.GetQuery("user_id"),
		Channel: r.GetQuery("channel"),
	})
}

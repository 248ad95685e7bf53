package inbound

import (
	"context"

	"github.com/veriflowhq/veriflow/internal/pkg/router"
	"github.com/veriflowhq/veriflow/internal/verification/usecase"
)

type uc interface {
	SendOTP(ctx context.Context, in usecase.SendOTPInput) (*usecase.SendOTPOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	CanResend(ctx context.Context, in usecase.CanResendInput) (*usecase.CanResendOutput, error)
	Progress(ctx context.Context, in usecase.ProgressInput) (*usecase.ProgressOutput, error)
	CacheStatus(ctx context.Context, in usecase.CacheStatusInput) (*usecase.CacheStatusOutput, error)
	ClearCache(ctx context.Context, in usecase.ClearCacheInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, throttle router.Middleware) {
	end := &HTTPEndpoint{uc: uc}

	// Public verification flow
	r.POST("/api/v1/verification/otp/send", end.SendOTP, throttle)
	r.POST("/api/v1/verification/otp/verify", end.VerifyOTP)
	r.GET("/api/v1/verification/otp/resend-status", end.ResendStatus)

	// Progress (need authenticated)
	r.GET("/api/v1/verification/progress", end.Progress)

	// Cache inspection (need authenticated & admin role)
	r.GET("/api/v1/verification/cache", end.CacheStatus, router.RequireAdmin())
	r.DELETE("/api/v1/verification/cache", end.ClearCache, router.RequireAdmin())
}

package services

import (
	"context"

	"rewards-dashboard/models"

	"github.com/sirupsen/logrus"
)

type AuthService struct {
	base
}

func NewAuthService(api Requester, log *logrus.Entry) *AuthService {
	return &AuthService{base{api: api, log: log}}
}

type otpRequest struct {
	Phone string `json:"phone"`
}

type otpVerifyRequest struct {
	Phone string `json:"phone"`
	Otp   string `json:"otp"`
}

// RequestOTP asks the backend to send a one-time password to phone
func (s *AuthService) RequestOTP(ctx context.Context, phone string) (*models.OtpRequestResponse, error) {
	var out models.OtpRequestResponse
	if err := s.api.Post(ctx, "/stores/auth/request-otp", otpRequest{Phone: phone}, &out); err != nil {
		return nil, s.fail("request otp", err)
	}
	return &out, nil
}

// VerifyOTP exchanges phone + otp for a bearer token and the store record
func (s *AuthService) VerifyOTP(ctx context.Context, phone, otp string) (*models.StoreAuthResponse, error) {
	var out models.StoreAuthResponse
	if err := s.api.Post(ctx, "/stores/auth/verify-otp", otpVerifyRequest{Phone: phone, Otp: otp}, &out); err != nil {
		return nil, s.fail("verify otp", err)
	}
	return &out, nil
}

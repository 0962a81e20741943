package dashboard

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"rewards-dashboard/models"
	"rewards-dashboard/querycache"
	"rewards-dashboard/utils"

	"github.com/sirupsen/logrus"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	otpPattern   = regexp.MustCompile(`^[0-9]{6}$`)
)

// Step is the visible step of the two-step login.
type Step string

const (
	StepPhone Step = "phone"
	StepOTP   Step = "otp"
)

// OTPBackend issues and verifies one-time passwords.
type OTPBackend interface {
	RequestOTP(ctx context.Context, phone string) (*models.OtpRequestResponse, error)
	VerifyOTP(ctx context.Context, phone, otp string) (*models.StoreAuthResponse, error)
}

// SessionStore is the part of the session the login flow writes to.
type SessionStore interface {
	Login(ctx context.Context, store models.Store, token string) error
	Logout(ctx context.Context) error
}

// FlowState is what the login page renders.
type FlowState struct {
	Step  Step   `json:"step"`
	Phone string `json:"phone,omitempty"`
}

// AuthFlow runs phone entry, OTP verification and logout.
type AuthFlow struct {
	mu      sync.Mutex
	step    Step
	phone   string
	otp     OTPBackend
	session SessionStore
	cache   *querycache.Cache
	log     *logrus.Entry
}

func NewAuthFlow(otp OTPBackend, session SessionStore, cache *querycache.Cache, log *logrus.Entry) *AuthFlow {
	return &AuthFlow{step: StepPhone, otp: otp, session: session, cache: cache, log: log}
}

func (f *AuthFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FlowState{Step: f.step, Phone: f.phone}
}

func normalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
}

// RequestOTP sends a code to phone and moves the flow to the OTP step.
func (f *AuthFlow) RequestOTP(ctx context.Context, phone string) (*models.OtpRequestResponse, error) {
	phone = normalizePhone(phone)
	if !phonePattern.MatchString(phone) {
		return nil, ErrInvalidPhone
	}
	resp, err := f.otp.RequestOTP(ctx, phone)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.step = StepOTP
	f.phone = phone
	f.mu.Unlock()

	f.log.WithField("phone", utils.PhoneFingerprint(phone)).Info("otp requested")
	return resp, nil
}

// VerifyOTP checks code for the pending phone. On success the session is
// authenticated and the flow returns to the phone step.
func (f *AuthFlow) VerifyOTP(ctx context.Context, code string) (*models.StoreAuthResponse, error) {
	f.mu.Lock()
	step, phone := f.step, f.phone
	f.mu.Unlock()

	if step != StepOTP || phone == "" {
		return nil, ErrNoPendingOTP
	}
	code = strings.TrimSpace(code)
	if !otpPattern.MatchString(code) {
		return nil, ErrInvalidOTP
	}

	resp, err := f.otp.VerifyOTP(ctx, phone, code)
	if err != nil {
		return nil, err
	}
	if resp.Store == nil || resp.Store.ID == "" {
		return nil, ErrMissingStore
	}
	if err := f.session.Login(ctx, *resp.Store, resp.Token); err != nil {
		return nil, err
	}

	f.Reset()
	f.log.WithFields(logrus.Fields{
		"phone":    utils.PhoneFingerprint(phone),
		"store_id": resp.Store.ID,
	}).Info("otp verified")
	return resp, nil
}

// Reset returns to the phone step.
func (f *AuthFlow) Reset() {
	f.mu.Lock()
	f.step = StepPhone
	f.phone = ""
	f.mu.Unlock()
}

// Logout clears the session and every cached read.
func (f *AuthFlow) Logout(ctx context.Context) error {
	err := f.session.Logout(ctx)
	f.cache.Clear()
	f.Reset()
	return err
}

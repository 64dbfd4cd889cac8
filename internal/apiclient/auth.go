package apiclient

import (
	"context"
	"net/http"
)

// SendCodeResult is the backend's acknowledgement of a code request.
type SendCodeResult struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// SendCode requests a verification code for the given phone number.
func (c *Client) SendCode(ctx context.Context, phone string) (*SendCodeResult, error) {
	in := map[string]string{"phone": phone}
	var out SendCodeResult
	if err := c.doJSON(ctx, http.MethodPost, "/auth/send-code", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoginResult is a successful verification response.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// User is the account summary embedded in auth responses.
type User struct {
	ID                string `json:"id"`
	Phone             string `json:"phone"`
	SubscriptionType  string `json:"subscription_type"`
	APICallsRemaining int    `json:"api_calls_remaining"`
	TotalAPICalls     int    `json:"total_api_calls"`
}

// Verify exchanges a phone number and verification code for a session.
// The returned token is installed on the client for subsequent calls.
// inviteCode may be empty.
func (c *Client) Verify(ctx context.Context, phone, code, inviteCode string) (*LoginResult, error) {
	in := map[string]string{"phone": phone, "code": code}
	if inviteCode != "" {
		in["invite_code"] = inviteCode
	}
	var out LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/auth/verify", in, &out); err != nil {
		return nil, err
	}
	c.token = out.AccessToken
	return &out, nil
}

// Profile is the authenticated user's profile.
type Profile struct {
	User        User     `json:"user"`
	InviteCodes []string `json:"invite_codes"`
}

// Me fetches the current user's profile.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InviteCodesResult reports invite codes minted for the current user.
type InviteCodesResult struct {
	Message  string   `json:"message"`
	NewCodes []string `json:"new_codes"`
}

// GenerateInviteCodes tops the user's active invite codes up to the
// backend's cap. The backend rejects the request when the cap is already
// reached.
func (c *Client) GenerateInviteCodes(ctx context.Context) (*InviteCodesResult, error) {
	var out InviteCodesResult
	if err := c.doJSON(ctx, http.MethodPost, "/auth/generate-invite-codes", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

package share

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// authState tracks where the device-code flow currently stands.
type authState int

const (
	statePending authState = iota
	stateVerified
	stateExpired
	stateDenied
)

// deviceCode is the server's response to a device authorization request.
type deviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// tokenResponse is the token endpoint's response while polling. Either the
// token fields or the error field is populated.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// Authenticator drives the device-code login flow against the results
// service and persists the resulting token.
type Authenticator struct {
	baseURL  string
	clientID string
	store    *TokenStore
	client   *http.Client
	out      io.Writer

	// now and interval are stubbed in tests; a nonzero interval overrides
	// the server-given poll interval.
	now      func() time.Time
	interval time.Duration
}

// NewAuthenticator returns an Authenticator for the given service. Prompts
// (verification URI and user code) are written to out.
func NewAuthenticator(baseURL, clientID string, store *TokenStore, out io.Writer) *Authenticator {
	return &Authenticator{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		store:    store,
		client:   &http.Client{Timeout: 30 * time.Second},
		out:      out,
		now:      time.Now,
	}
}

// Login requests a device code, prompts the user to verify it, and polls
// the token endpoint until the flow resolves. On success the token is saved
// to the store and returned. Denial and code expiry map to AuthError kinds
// Denied and Timeout.
func (a *Authenticator) Login(ctx context.Context) (*oauth2.Token, error) {
	code, err := a.requestDeviceCode(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "Open %s and enter code: %s\n", code.VerificationURI, code.UserCode)

	interval := time.Duration(code.Interval) * time.Second
	if a.interval > 0 {
		interval = a.interval
	} else if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := a.now().Add(time.Duration(code.ExpiresIn) * time.Second)

	state := statePending
	var tok *oauth2.Token
	for state == statePending {
		if a.now().After(deadline) {
			state = stateExpired
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		resp, err := a.pollToken(ctx, code.DeviceCode)
		if err != nil {
			return nil, err
		}
		switch resp.Error {
		case "":
			tok = &oauth2.Token{
				AccessToken: resp.AccessToken,
				TokenType:   resp.TokenType,
			}
			if resp.ExpiresIn > 0 {
				tok.Expiry = a.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
			}
			state = stateVerified
		case "authorization_pending":
			// keep polling
		case "slow_down":
			interval += 5 * time.Second
		case "expired_token":
			state = stateExpired
		case "access_denied":
			state = stateDenied
		default:
			return nil, fmt.Errorf("token endpoint returned %q", resp.Error)
		}
	}

	switch state {
	case stateVerified:
		if err := a.store.Save(tok); err != nil {
			return nil, err
		}
		return tok, nil
	case stateDenied:
		return nil, &AuthError{Kind: AuthDenied, Detail: "authorization denied by user"}
	default:
		return nil, &AuthError{Kind: AuthTimeout, Detail: "device code expired before verification"}
	}
}

func (a *Authenticator) requestDeviceCode(ctx context.Context) (*deviceCode, error) {
	form := url.Values{"client_id": {a.clientID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/device/code", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request device code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("device code endpoint returned %d", resp.StatusCode)
	}

	var code deviceCode
	if err := json.NewDecoder(resp.Body).Decode(&code); err != nil {
		return nil, fmt.Errorf("failed to decode device code response: %w", err)
	}
	return &code, nil
}

func (a *Authenticator) pollToken(ctx context.Context, device string) (*tokenResponse, error) {
	form := url.Values{
		"client_id":   {a.clientID},
		"device_code": {device},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/device/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to poll token endpoint: %w", err)
	}
	defer resp.Body.Close()

	// The device-code grant reports pending/denied states in the body with a
	// 4xx status, so the status code alone is not a failure.
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &tr, nil
}

package cloudapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/config"
	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/logging"
)

// The cloud authenticates the app itself, not just the account, so
// every request mimics the mobile client.
const (
	appID      = "121c83f761305d6cf7b"
	appType    = "iOS"
	appVersion = "4.3.1"
	userAgent  = "Zendure/4.3.1 (iPhone; iOS 14.4.2; Scale/3.00)"

	defaultRequestTimeout = 10 * time.Second
)

// Client is the vendor cloud REST client.
//
// Thread Safety:
//   - Login and DeviceList may be called from any goroutine; the
//     session is passed explicitly rather than held as mutable state.
type Client struct {
	cfg    config.CloudConfig
	http   *http.Client
	logger *logging.Logger
}

// NewClient creates a cloud API client.
//
// Parameters:
//   - cfg: Cloud endpoints and account credentials
//   - logger: Structured logger, nil for silent operation
//
// Returns:
//   - *Client: Configured client; no network I/O happens until Login
func NewClient(cfg config.CloudConfig, logger *logging.Logger) *Client {
	timeout := defaultRequestTimeout
	if cfg.RequestTimeoutSecs > 0 {
		timeout = time.Duration(cfg.RequestTimeoutSecs) * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger.With("component", "cloudapi"),
	}
}

// Login authenticates against the cloud token endpoint.
//
// The account credentials travel twice, as the vendor app does it:
// base64 in the Authorization header and verbatim in the JSON body.
// The returned session carries the access token, the user id, and the
// token expiry parsed from the JWT claims. The token signature is not
// verified; the expiry only schedules re-login, it grants nothing.
//
// Returns:
//   - *Session: Authenticated session
//   - error: ErrLoginFailed on rejected credentials or a malformed
//     response, ErrRequestFailed on transport errors
func (c *Client) Login(ctx context.Context) (*Session, error) {
	body, err := json.Marshal(loginRequest{
		Password:  c.cfg.Password,
		Account:   c.cfg.Username,
		AppID:     appID,
		AppType:   appType,
		GrantType: "password",
		TenantID:  "",
	})
	if err != nil {
		return nil, fmt.Errorf("cloudapi: encoding login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cloudapi: building login request: %w", err)
	}
	c.setCommonHeaders(req)
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.Username + ":" + c.cfg.Password))
	req.Header.Set("Authorization", "Basic "+basic)

	var decoded loginResponse
	if err := c.do(req, &decoded); err != nil {
		return nil, err
	}
	if !decoded.Success || decoded.Data.AccessToken == "" {
		return nil, fmt.Errorf("%w: %s", ErrLoginFailed, decoded.Msg)
	}

	session := &Session{
		AccessToken: decoded.Data.AccessToken,
		UserID:      decoded.Data.UserID.String(),
	}
	if expiry, ok := tokenExpiry(decoded.Data.AccessToken); ok {
		session.ExpiresAt = expiry
		c.logger.Info("cloud login successful",
			"user_id", session.UserID,
			"token_expires", expiry.Format(time.RFC3339))
	} else {
		c.logger.Info("cloud login successful, token carries no expiry",
			"user_id", session.UserID)
	}
	return session, nil
}

// DeviceList fetches the account's devices.
//
// Sub-devices stay nested in each entry's PackList; callers walk them
// for ACE units that need their own subscriptions.
//
// Returns:
//   - []DeviceDetails: Devices registered to the account, possibly empty
//   - error: ErrNotAuthenticated without a valid session,
//     ErrRequestFailed on transport or API errors
func (c *Client) DeviceList(ctx context.Context, session *Session) ([]DeviceDetails, error) {
	if !session.Valid() {
		return nil, ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.DeviceListURL, bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, fmt.Errorf("cloudapi: building device list request: %w", err)
	}
	c.setCommonHeaders(req)
	req.Header.Set("Blade-Auth", "bearer "+session.AccessToken)

	var decoded deviceListResponse
	if err := c.do(req, &decoded); err != nil {
		return nil, err
	}
	if !decoded.Success {
		return nil, fmt.Errorf("%w: %s", ErrRequestFailed, decoded.Msg)
	}

	c.logger.Debug("device list fetched", "count", len(decoded.Data))
	return decoded.Data, nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "de-DE")
	req.Header.Set("appVersion", appVersion)
	req.Header.Set("User-Agent", userAgent)
}

// do executes a request and decodes the JSON response body into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: unexpected status %d", ErrRequestFailed, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrRequestFailed, err)
	}
	return nil
}

// tokenExpiry extracts the expiry claim from an access token without
// verifying the signature.
func tokenExpiry(raw string) (time.Time, bool) {
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	expiry, err := token.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return time.Time{}, false
	}
	return expiry.Time, true
}

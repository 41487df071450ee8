package cloudapi

import (
	"encoding/json"
	"time"
)

// Session is the outcome of a successful login.
type Session struct {
	// AccessToken authenticates REST calls and doubles as the MQTT
	// client identity against the vendor broker.
	AccessToken string

	// UserID scopes smart-plug telemetry topics.
	UserID string

	// ExpiresAt is the token expiry taken from the JWT claims, zero
	// when the token carries none.
	ExpiresAt time.Time
}

// Valid reports whether the session can authenticate requests.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != ""
}

// DeviceDetails is one entry of the cloud device list. Sub-devices
// (ACE units behind a hub) arrive nested in PackList with the same
// shape.
type DeviceDetails struct {
	ID          json.Number     `json:"id"`
	ProductKey  string          `json:"productKey"`
	DeviceKey   string          `json:"deviceKey"`
	ProductName string          `json:"productName"`
	DeviceName  string          `json:"deviceName"`
	SnNumber    string          `json:"snNumber"`
	PackList    []DeviceDetails `json:"packList"`
}

type loginRequest struct {
	Password  string `json:"password"`
	Account   string `json:"account"`
	AppID     string `json:"appId"`
	AppType   string `json:"appType"`
	GrantType string `json:"grantType"`
	TenantID  string `json:"tenantId"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Data    struct {
		AccessToken string      `json:"accessToken"`
		UserID      json.Number `json:"userId"`
	} `json:"data"`
}

type deviceListResponse struct {
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Data    []DeviceDetails `json:"data"`
}

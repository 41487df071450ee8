// Package cloudapi talks to the vendor cloud REST API.
//
// The bridge needs the cloud for exactly two things before it can work
// over MQTT: a login that yields the access token doubling as the MQTT
// client identity, and the account's device list with product keys,
// device keys and attached sub-devices. Both endpoints mimic the
// vendor's mobile app, headers included; the API serves nothing else.
package cloudapi

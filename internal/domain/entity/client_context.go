// Package entity contains the core business objects of the project.
package entity

// MaxUserAgentLength bounds the user-agent string persisted with a session.
const MaxUserAgentLength = 100

// ClientContext carries the client metadata extracted from an inbound
// request at the delivery boundary. The core never inspects raw requests.
type ClientContext struct {
	IPAddress   string // Leftmost trusted forwarded-for hop, else the socket address.
	UserAgent   string // Truncated to MaxUserAgentLength.
	DeviceLabel string // Coarse label derived from the user agent, e.g. "mobile".
}

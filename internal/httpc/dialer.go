// Package httpc provides the shared websocket dialer used to reach a remote
// viewer. Use it instead of websocket.DefaultDialer so connects time out.
package httpc

import (
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// Default timeouts for outbound connections.
const (
	DefaultConnectTimeout   = 10 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultKeepAlive        = 30 * time.Second
)

// Dialer is a shared websocket dialer with production-ready defaults.
var Dialer = NewDialer(DefaultConnectTimeout)

// NewDialer creates a dialer whose TCP connect gives up after connectTimeout.
// For most cases, use the shared Dialer variable instead.
func NewDialer(connectTimeout time.Duration) *websocket.Dialer {
	return &websocket.Dialer{
		NetDialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: DefaultKeepAlive,
		}).DialContext,
		HandshakeTimeout:  DefaultHandshakeTimeout,
		ReadBufferSize:    4096,
		WriteBufferSize:   256 * 1024,
		EnableCompression: false,
	}
}

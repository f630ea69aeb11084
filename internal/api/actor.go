package api

import (
	"net"
	"net/http"

	"github.com/ignite/voucher-console/internal/auth"
	"github.com/ignite/voucher-console/internal/domain"
)

// ChannelHeader lets clients name the surface a request came from.
const ChannelHeader = "X-Channel"

const defaultChannel = "console"

// actorFrom builds the audit actor of a request. RealIP has already
// rewritten RemoteAddr.
func actorFrom(r *http.Request) domain.Actor {
	a := domain.Actor{
		Name:      "anonymous",
		Channel:   r.Header.Get(ChannelHeader),
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
	if p, ok := auth.FromContext(r.Context()); ok {
		a.Name = p.UserID
	}
	if a.Channel == "" {
		a.Channel = defaultChannel
	}
	return a
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package security

import (
	"context"
	"fmt"
	"net"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// EgressGuard denies outbound network dials to hosts outside a
// configured allowlist. This system originates outbound connections
// in exactly one place — the optional period-close export sink — so
// the guard wraps a net.Dialer rather than intercepting every socket
// in the process.
type EgressGuard struct {
	allowlist map[string]struct{}
	dialer    net.Dialer
}

// NewEgressGuard builds a guard from a list of allowed hostnames.
// Hostnames are Unicode-normalized (NFC) before comparison so
// visually-identical but differently-encoded host strings in
// configuration and in a dial request compare equal.
func NewEgressGuard(allowlist []string) *EgressGuard {
	set := make(map[string]struct{}, len(allowlist))
	for _, host := range allowlist {
		set[normalizeHost(host)] = struct{}{}
	}
	return &EgressGuard{allowlist: set}
}

func normalizeHost(host string) string {
	return strings.ToLower(norm.NFC.String(host))
}

// DialContext implements the dial signature http.Transport.DialContext
// expects, rejecting any address whose host is not on the allowlist.
func (g *EgressGuard) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if _, ok := g.allowlist[normalizeHost(host)]; !ok {
		return nil, fmt.Errorf("security: egress to %q is not on the allowlist", host)
	}
	return g.dialer.DialContext(ctx, network, addr)
}

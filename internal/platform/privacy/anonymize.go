// Package privacy holds helpers for keeping personal data out of logs. The
// rest of the identity data in this service never reaches a log line at all;
// these helpers cover the values that do.
package privacy

import (
	"fmt"
	"net"
)

// AnonymizeIP strips the host-identifying portion of an address before it is
// logged: IPv4 keeps the /24 network, IPv6 keeps the /48 prefix. Returns
// "invalid" for unparseable input and "unknown" for an empty string.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}

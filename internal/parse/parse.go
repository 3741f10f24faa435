package parse

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"unicode/utf8"

	"laundry-booking-backend/internal/model"
)

const maxRoomNumberLen = 32

var (
	spaceRe = regexp.MustCompile(`\s+`)
	phoneRe = regexp.MustCompile(`^\+?[0-9 .\-]{6,20}$`)
)

// NormalizeIP converts loopback and IPv4-mapped IPv6 forms to plain IPv4 and strips a
// port when present. Values that are not addresses are returned trimmed.
func NormalizeIP(raw string) string {
	ip := strings.TrimSpace(raw)
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	ip = strings.Trim(ip, "[]")

	if ip == "::1" {
		return "127.0.0.1"
	}
	if strings.HasPrefix(strings.ToLower(ip), "::ffff:") {
		ip = ip[len("::ffff:"):]
	}
	if parsed := net.ParseIP(ip); parsed != nil {
		if v4 := parsed.To4(); v4 != nil {
			return v4.String()
		}
		return parsed.String()
	}
	return ip
}

// ForwardedIP returns the first hop of a comma separated forwarding header, normalized.
func ForwardedIP(header string) string {
	first, _, _ := strings.Cut(header, ",")
	return NormalizeIP(first)
}

// RoomNumber trims and collapses whitespace and rejects empty or overlong values.
func RoomNumber(raw string) (string, error) {
	s := strings.TrimSpace(spaceRe.ReplaceAllString(raw, " "))
	if s == "" {
		return "", fmt.Errorf("room number is empty")
	}
	if utf8.RuneCountInString(s) > maxRoomNumberLen {
		return "", fmt.Errorf("room number %q is too long", raw)
	}
	return s, nil
}

// PhoneNumber trims raw and checks it loosely looks like a phone number. Empty is allowed.
func PhoneNumber(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", nil
	}
	if !phoneRe.MatchString(s) {
		return "", fmt.Errorf("invalid phone number: %q", raw)
	}
	return s, nil
}

// MachineType parses a machine type name case-insensitively. When allowAny is set the
// queue wildcard is accepted and an empty value yields it.
func MachineType(raw string, allowAny bool) (model.MachineType, error) {
	t := model.MachineType(strings.ToLower(strings.TrimSpace(raw)))
	if t == "" && allowAny {
		return model.MachineTypeAny, nil
	}
	if t.IsMachineType() || (allowAny && t == model.MachineTypeAny) {
		return t, nil
	}
	return "", fmt.Errorf("invalid machine type: %q", raw)
}

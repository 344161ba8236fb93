package models

import "strings"

// SanitizeKeySegment makes an address safe for use in colon-delimited store
// keys. IPv6 literals contain colons, which would otherwise split the key.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// WindowKey names the sliding-window counter for one class and address.
func WindowKey(class TrafficClass, address string) string {
	return "ratelimit:window:" + string(class) + ":" + SanitizeKeySegment(address)
}

// BanKey names the dynamic ban marker for an address.
func BanKey(address string) string {
	return "ratelimit:ban:" + SanitizeKeySegment(address)
}

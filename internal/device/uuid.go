package device

import "strings"

const sigBaseSuffix = "00001000800000805f9b34fb"

// NormalizeUUID converts a UUID string to a comparable form (lowercase, no dashes, no 0x prefix).
// Full 128-bit UUIDs in the Bluetooth SIG base form (0000xxxx-0000-1000-8000-00805f9b34fb)
// are shortened to their 16-bit form (xxxx) so that "2a2b" and the long form compare equal.
func NormalizeUUID(uuid string) string {
	u := strings.ToLower(strings.TrimSpace(uuid))
	u = strings.TrimPrefix(u, "0x")
	u = strings.ReplaceAll(u, "-", "")

	if len(u) == 32 && strings.HasPrefix(u, "0000") && strings.HasSuffix(u, sigBaseSuffix) {
		return u[4:8]
	}
	return u
}

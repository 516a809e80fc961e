package gateway

import "strings"

const qrDataURIPrefix = "data:image/png;base64,"

// NormalizeQR turns a QR payload into a data URI the editor can render
// directly. Already-prefixed payloads pass through unchanged, so the function
// is idempotent.
func NormalizeQR(qr string) string {
	if qr == "" {
		return ""
	}

	if strings.HasPrefix(qr, "data:image") {
		return qr
	}

	return qrDataURIPrefix + qr
}

package cache

import (
	"crypto/sha256"
	"fmt"
)

// InvoiceStatusKey hashes the bolt11 string so keys stay bounded.
func InvoiceStatusKey(bolt11 string) string {
	sum := sha256.Sum256([]byte(bolt11))
	return fmt.Sprintf("invoice:%x", sum[:16])
}

func RateLimitKey(host string) string {
	return fmt.Sprintf("ratelimit:%s", host)
}

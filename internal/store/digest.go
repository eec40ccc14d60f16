package store

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainTransaction prefixes transaction body digests. The version suffix
// leaves room for changing the algorithm.
const DomainTransaction = "patomic/transaction/v1"

// Digest returns the content address of a rendered transaction body:
// SHA256(domain + 0x00 + body), hex encoded. Two journal entries with the
// same digest submitted the same text.
func Digest(body string) string {
	return hashWithDomain(DomainTransaction, []byte(body))
}

func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

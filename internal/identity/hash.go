package identity

import (
	"encoding/hex"
	"net/netip"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// IPHasher turns client addresses into keyed digests so raw IPs are never
// written to the ledger.
type IPHasher struct {
	key []byte
}

func NewIPHasher(key string) *IPHasher {
	k := []byte(key)
	if len(k) > blake2b.Size {
		sum := blake2b.Sum512(k)
		k = sum[:]
	}
	return &IPHasher{key: k}
}

// Hash returns the hex digest of the canonical form of ip, or "" for an empty
// address.
func (h *IPHasher) Hash(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return ""
	}
	if addr, err := netip.ParseAddr(ip); err == nil {
		ip = addr.Unmap().String()
	}
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// only reachable with an oversized key, which NewIPHasher prevents
		panic(err)
	}
	mac.Write([]byte(ip))
	return hex.EncodeToString(mac.Sum(nil))
}

package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes. The version suffix allows the encoding to change later
// without old and new hashes being confused.
const (
	DomainTiddler  = "twboot/tiddler/v1"
	DomainSnapshot = "twboot/snapshot/v1"
)

// HashWithDomain returns hex SHA-256 of domain, a zero byte and data.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TiddlerHash identifies a tiddler by the textual form of its fields.
func TiddlerHash(fields map[string]string) (string, error) {
	data, err := Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("tiddler hash: %w", err)
	}
	return HashWithDomain(DomainTiddler, data), nil
}

// SnapshotHash identifies a set of tiddlers by their hashes in title order.
func SnapshotHash(titleHashes []string) string {
	data, _ := Marshal(titleHashes)
	return HashWithDomain(DomainSnapshot, data)
}

package instance

import (
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"

	"golang.org/x/crypto/blake2b"
)

// buildCounter is incremented once per instance construction so two
// instances rooted at the same dir within one process still get
// distinct ids. BLAKE2b is used as a keyed PRF here rather than a plain
// content hash, the same technique a secret-handle fingerprint uses to
// avoid leaking the raw input through the digest.
var buildCounter atomic.Uint64

// newInstanceID derives an opaque instance id from dir and a per-
// process monotonic counter, keyed so the id is not simply a guessable
// hash of the path alone.
func newInstanceID(dir string) (string, error) {
	seq := buildCounter.Add(1)

	var key [32]byte
	copy(key[:], "apitree-instance-id-v1-keyspace")

	h, err := blake2b.New256(key[:])
	if err != nil {
		return "", err
	}

	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], seq)

	h.Write(seqBytes[:])
	h.Write([]byte(dir))

	return hex.EncodeToString(h.Sum(nil))[:24], nil
}

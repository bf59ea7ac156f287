// Package cursor encodes keyset pagination positions into opaque, signed tokens.
package cursor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/search/mode"
	"github.com/kailas-cloud/jobmatch/internal/domain/search/result"
)

const (
	version byte = 1
	// MinSecretLength is the minimum HMAC key size accepted by NewCodec.
	MinSecretLength = 16
	tagLength       = 16
	// fixed part: version, mode, score, views, seconds, nanos
	headerLength = 1 + 1 + 8 + 8 + 8 + 4
	maxIDLength  = 256
)

// Codec signs and verifies cursors. Safe for concurrent use.
type Codec struct {
	secret []byte
}

// NewCodec creates a codec keyed with secret.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("cursor secret must be at least %d bytes", MinSecretLength)
	}
	return &Codec{secret: append([]byte(nil), secret...)}, nil
}

// Encode serializes k and binds it to scope (the query fingerprint).
func (c *Codec) Encode(k result.SortKey, scope string) string {
	buf := make([]byte, headerLength, headerLength+binary.MaxVarintLen64+len(k.JobID)+tagLength)
	buf[0] = version
	buf[1] = k.Mode.Byte()
	binary.BigEndian.PutUint64(buf[2:], math.Float64bits(k.Score))
	binary.BigEndian.PutUint64(buf[10:], uint64(k.Views))
	binary.BigEndian.PutUint64(buf[18:], uint64(k.PublishedAt.Unix()))
	binary.BigEndian.PutUint32(buf[26:], uint32(k.PublishedAt.Nanosecond()))
	buf = binary.AppendUvarint(buf, uint64(len(k.JobID)))
	buf = append(buf, k.JobID...)
	buf = append(buf, c.sign(buf, scope)...)
	return base64.RawURLEncoding.EncodeToString(buf)
}

// Decode verifies s against scope and returns the key it carries.
// Any malformed, tampered or foreign cursor fails with domain.ErrInvalidCursor.
func (c *Codec) Decode(s, scope string) (result.SortKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return result.SortKey{}, fmt.Errorf("decode: %w", domain.ErrInvalidCursor)
	}
	if len(raw) < headerLength+1+tagLength {
		return result.SortKey{}, fmt.Errorf("truncated: %w", domain.ErrInvalidCursor)
	}
	payload, tag := raw[:len(raw)-tagLength], raw[len(raw)-tagLength:]
	if !hmac.Equal(tag, c.sign(payload, scope)) {
		return result.SortKey{}, fmt.Errorf("signature mismatch: %w", domain.ErrInvalidCursor)
	}
	k, err := parse(payload)
	if err != nil {
		return result.SortKey{}, fmt.Errorf("%s: %w", err.Error(), domain.ErrInvalidCursor)
	}
	return k, nil
}

func parse(p []byte) (result.SortKey, error) {
	if p[0] != version {
		return result.SortKey{}, fmt.Errorf("unsupported version %d", p[0])
	}
	m, ok := mode.FromByte(p[1])
	if !ok {
		return result.SortKey{}, errors.New("unknown mode")
	}
	score := math.Float64frombits(binary.BigEndian.Uint64(p[2:]))
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return result.SortKey{}, errors.New("non-finite score")
	}
	views := int64(binary.BigEndian.Uint64(p[10:]))
	sec := int64(binary.BigEndian.Uint64(p[18:]))
	nsec := binary.BigEndian.Uint32(p[26:])
	if nsec >= uint32(time.Second) {
		return result.SortKey{}, errors.New("bad timestamp")
	}
	rest := p[headerLength:]
	n, w := binary.Uvarint(rest)
	if w <= 0 || n > maxIDLength || uint64(len(rest)-w) != n {
		return result.SortKey{}, errors.New("bad job id")
	}
	return result.SortKey{
		Mode:        m,
		Score:       score,
		Views:       views,
		PublishedAt: time.Unix(sec, int64(nsec)).UTC(),
		JobID:       string(rest[w:]),
	}, nil
}

func (c *Codec) sign(payload []byte, scope string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(payload)
	mac.Write([]byte{0})
	mac.Write([]byte(scope))
	return mac.Sum(nil)[:tagLength]
}

// Package codec embeds and detects the watermark value carried by a
// pseudo document.
//
// The value is a fixed content digest of the identity, the codec fields and
// the key, reduced modulo Modulus. It is stable across processes, restarts
// and implementations, so a watermark can be detected with zero data edits
// long after it was embedded. It is an ownership tag, not a secret: anyone
// who knows the identity, key and field list can recompute it.
//
// Field values enter the digest through their Text form only, so values of
// different kinds with the same text hash alike: Null and String("null"),
// or Int(1) and String("1"), yield the same watermark value.
package codec

import (
	"crypto/sha256"
	"encoding/binary"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
)

// Modulus bounds the watermark value.
const Modulus = 11706361

// Domain separates watermark digests from any other use of SHA-256.
// The version suffix allows a future algorithm change.
const Domain = "gwm/watermark/v1"

// Key is the static watermark configuration for one injection run.
type Key struct {
	// Key is the integer watermark key.
	Key int64 `json:"key" yaml:"key"`

	// Identity is the owner identity carried by the mark.
	Identity string `json:"identity" yaml:"identity"`

	// CoverField is the document field that receives the value.
	CoverField string `json:"cover_field" yaml:"cover_field"`

	// Fields are the document fields hashed into the value, in order.
	Fields []string `json:"fields" yaml:"fields"`
}

// Validate checks the cover field contract.
func (k Key) Validate() error {
	if k.CoverField == "" {
		return fault.New(fault.InvalidArgument, "codec", "cover field is required")
	}
	if slices.Contains(k.Fields, k.CoverField) {
		return fault.New(fault.InvalidArgument, "codec",
			"cover field %q must not be one of the codec fields", k.CoverField)
	}
	return nil
}

// digest computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func digest(data string) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte(Domain))
	h.Write([]byte{0x00})
	h.Write([]byte(data))
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// preimage concatenates identity, the text of every codec field and the key.
// The result is NFC normalized so canonically equivalent strings agree.
func preimage(doc graph.Fields, k Key) (string, error) {
	var b strings.Builder
	b.WriteString(k.Identity)
	for _, name := range k.Fields {
		v, ok := doc[name]
		if !ok {
			return "", fault.New(fault.InvalidArgument, "codec", "document has no field %q", name)
		}
		b.WriteString(v.Text())
	}
	b.WriteString(strconv.FormatInt(k.Key, 10))
	return norm.NFC.String(b.String()), nil
}

// Compute returns the watermark value for doc without modifying it.
func Compute(doc graph.Fields, k Key) (int64, error) {
	if err := k.Validate(); err != nil {
		return 0, err
	}
	pre, err := preimage(doc, k)
	if err != nil {
		return 0, err
	}
	sum := digest(pre)
	return int64(binary.BigEndian.Uint64(sum[:8]) % Modulus), nil
}

// Embed computes the watermark value, writes it into doc[k.CoverField] and
// returns it.
func Embed(doc graph.Fields, k Key) (int64, error) {
	value, err := Compute(doc, k)
	if err != nil {
		return 0, err
	}
	doc[k.CoverField] = graph.Int(value)
	return value, nil
}

// Detect recomputes the value from the document's current fields and
// compares it with the stored cover value. A missing codec field or cover
// field means the mark is gone.
func Detect(doc graph.Fields, k Key) bool {
	stored, ok := doc[k.CoverField]
	if !ok {
		return false
	}
	value, err := Compute(doc, k)
	if err != nil {
		return false
	}
	return graph.Equal(stored, graph.Int(value))
}

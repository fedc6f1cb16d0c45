package primarykey

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrInvalidKey is returned when a textual key cannot be parsed
	ErrInvalidKey = errors.New("invalid primary key")

	// ErrUnknownPartitioner is returned for an unrecognised partitioner name
	ErrUnknownPartitioner = errors.New("unknown partitioner")
)

// Partitioner maps a partition key to its token.
type Partitioner func(partition []byte) int64

// HashPartitioner spreads partitions by their xxhash digest.
func HashPartitioner(partition []byte) int64 {
	return int64(xxhash.Sum64(partition))
}

// ByteOrderedPartitioner keeps tokens in the byte order of the first eight
// bytes of the partition key. Longer keys sharing a prefix share a token and
// are ordered by the partition bytes themselves.
func ByteOrderedPartitioner(partition []byte) int64 {
	var prefix [8]byte
	copy(prefix[:], partition)
	return int64(binary.BigEndian.Uint64(prefix[:]) ^ (1 << 63))
}

// Partitioner names accepted by PartitionerByName.
const (
	PartitionerHash        = "hash"
	PartitionerByteOrdered = "byteordered"
)

// PartitionerByName resolves a configured partitioner name.
func PartitionerByName(name string) (Partitioner, error) {
	switch strings.ToLower(name) {
	case "", PartitionerHash:
		return HashPartitioner, nil
	case PartitionerByteOrdered, "byte_ordered":
		return ByteOrderedPartitioner, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPartitioner, name)
	}
}

// Factory creates primary keys with a fixed partitioner.
type Factory struct {
	partitioner Partitioner
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithPartitioner sets the partitioner used to compute tokens
func WithPartitioner(p Partitioner) FactoryOption {
	return func(f *Factory) {
		f.partitioner = p
	}
}

// NewFactory creates a key factory. The hash partitioner is used unless
// another one is supplied.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{partitioner: HashPartitioner}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns a normal row key. The byte slices are copied.
func (f *Factory) Create(partition, clustering []byte) *PrimaryKey {
	return &PrimaryKey{
		token:      f.partitioner(partition),
		partition:  cloneBytes(partition),
		clustering: cloneBytes(clustering),
		kind:       KindNormal,
	}
}

// CreateStatic returns the static row key of a partition.
func (f *Factory) CreateStatic(partition []byte) *PrimaryKey {
	return &PrimaryKey{
		token:     f.partitioner(partition),
		partition: cloneBytes(partition),
		kind:      KindStatic,
	}
}

// CreateToken returns a token-only key.
func (f *Factory) CreateToken(token int64) *PrimaryKey {
	return &PrimaryKey{token: token, kind: KindToken}
}

// ParseKey parses the textual key form:
//
//	p      normal row of partition p without clustering
//	p/c    normal row of partition p with clustering c
//	p/*    static row of partition p
//	#123   token-only key
//
// Either component may be written as 0x-prefixed hex.
func (f *Factory) ParseKey(text string) (*PrimaryKey, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	if strings.HasPrefix(text, "#") {
		token, err := strconv.ParseInt(text[1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad token %q: %v", ErrInvalidKey, text, err)
		}
		return f.CreateToken(token), nil
	}

	partText, clusterText, hasClustering := strings.Cut(text, "/")
	partition, err := parseComponent(partText)
	if err != nil {
		return nil, err
	}
	if len(partition) == 0 {
		return nil, fmt.Errorf("%w: missing partition in %q", ErrInvalidKey, text)
	}

	if !hasClustering {
		return f.Create(partition, nil), nil
	}
	if clusterText == "*" {
		return f.CreateStatic(partition), nil
	}

	clustering, err := parseComponent(clusterText)
	if err != nil {
		return nil, err
	}
	return f.Create(partition, clustering), nil
}

func parseComponent(s string) ([]byte, error) {
	if strings.HasPrefix(s, "0x") {
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, fmt.Errorf("%w: bad hex %q: %v", ErrInvalidKey, s, err)
		}
		return b, nil
	}
	return []byte(s), nil
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

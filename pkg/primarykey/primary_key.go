// Package primarykey defines the ordered row identifier produced by index scans.
//
// A PrimaryKey is ordered by token, then partition key, then clustering. Two
// rules relax that ordering: a token-only key compares by token alone, and a
// static key compares equal to every row of its partition. Callers that need
// to tell a static row apart from an ordering-equal normal row must look at
// Kind explicitly.
package primarykey

import (
	"bytes"
	"fmt"
	"strings"
)

// Kind discriminates the row a key identifies.
type Kind uint8

const (
	// KindNormal identifies a regular partition row
	KindNormal Kind = iota
	// KindStatic identifies the static row shared by a whole partition
	KindStatic
	// KindToken is a token-only bound, used as a skip target
	KindToken
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindNormal:
		return "NORMAL"
	case KindStatic:
		return "STATIC"
	case KindToken:
		return "TOKEN"
	default:
		return fmt.Sprintf("KIND(%d)", k)
	}
}

// PrimaryKey is an immutable row identifier. A nil *PrimaryKey means "no key".
type PrimaryKey struct {
	token      int64
	partition  []byte
	clustering []byte
	kind       Kind
}

// Token returns the partitioner token of the key
func (k *PrimaryKey) Token() int64 {
	return k.token
}

// Partition returns the partition key bytes. The slice must not be modified.
func (k *PrimaryKey) Partition() []byte {
	return k.partition
}

// Clustering returns the clustering bytes, empty for static and token keys.
func (k *PrimaryKey) Clustering() []byte {
	return k.clustering
}

// Kind returns the row kind of the key
func (k *PrimaryKey) Kind() Kind {
	return k.kind
}

// CompareTo compares k with other, see Compare.
func (k *PrimaryKey) CompareTo(other *PrimaryKey) int {
	return Compare(k, other)
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to or
// after b. Neither argument may be nil.
func Compare(a, b *PrimaryKey) int {
	if a.token != b.token {
		if a.token < b.token {
			return -1
		}
		return 1
	}
	if a.kind == KindToken || b.kind == KindToken {
		return 0
	}

	if cmp := bytes.Compare(a.partition, b.partition); cmp != 0 {
		return cmp
	}
	if a.kind == KindStatic || b.kind == KindStatic {
		return 0
	}

	return bytes.Compare(a.clustering, b.clustering)
}

// Min returns the smaller of a and b. A nil argument yields the other one.
func Min(a, b *PrimaryKey) *PrimaryKey {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if Compare(a, b) > 0 {
		return b
	}
	return a
}

// Max returns the larger of a and b. A nil argument yields the other one.
func Max(a, b *PrimaryKey) *PrimaryKey {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if Compare(a, b) < 0 {
		return b
	}
	return a
}

// String renders the key for display: the token, then for row keys the
// textual form ParseKey accepts.
func (k *PrimaryKey) String() string {
	if k == nil {
		return "<nil>"
	}

	if k.kind == KindToken {
		return fmt.Sprintf("#%d", k.token)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d:", k.token)
	switch k.kind {
	case KindStatic:
		sb.WriteString(renderBytes(k.partition))
		sb.WriteString("/*")
	default:
		sb.WriteString(renderBytes(k.partition))
		if len(k.clustering) > 0 {
			sb.WriteByte('/')
			sb.WriteString(renderBytes(k.clustering))
		}
	}
	return sb.String()
}

func renderBytes(b []byte) string {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%x", b)
		}
	}
	return string(b)
}

// Package object defines the immutable object model: blobs, trees and
// commits, their canonical serialization, and the typed header framing
// every stored object carries.
package object

import (
	"bytes"
	"fmt"
	"strconv"
)

type Type string

const (
	TypeBlob   Type = "blob"
	TypeTree   Type = "tree"
	TypeCommit Type = "commit"
)

const (
	ModeFile = "100644"
	ModeDir  = "040000"
)

// Storage is the slice of the content store the object layer needs.
type Storage interface {
	Put(content []byte) (string, error)
	Get(hash string) ([]byte, error)
}

// Encode frames a payload with its object header: "<type> <len>\x00".
// The hash of an object is computed over the framed bytes, so two
// payloads of different types can never collide.
func Encode(t Type, payload []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", t, len(payload))
	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	return append(out, payload...)
}

// Decode splits framed object bytes into type and payload.
func Decode(data []byte) (Type, []byte, error) {
	nul := bytes.IndexByte(data, 0)
	if nul < 0 {
		return "", nil, fmt.Errorf("malformed object: missing header terminator")
	}

	header := string(data[:nul])
	payload := data[nul+1:]

	var t Type
	var size int
	if _, err := fmt.Sscanf(header, "%s %d", &t, &size); err != nil {
		return "", nil, fmt.Errorf("malformed object header %q: %w", header, err)
	}
	switch t {
	case TypeBlob, TypeTree, TypeCommit:
	default:
		return "", nil, fmt.Errorf("unknown object type %q", t)
	}
	if size != len(payload) {
		return "", nil, fmt.Errorf("object size mismatch: header says %d, payload is %d", size, len(payload))
	}

	return t, payload, nil
}

// PutBlob stores file content as a blob object and returns its hash.
func PutBlob(s Storage, content []byte) (string, error) {
	return s.Put(Encode(TypeBlob, content))
}

// GetBlob retrieves blob content by hash.
func GetBlob(s Storage, hash string) ([]byte, error) {
	data, err := s.Get(hash)
	if err != nil {
		return nil, err
	}
	t, payload, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if t != TypeBlob {
		return nil, fmt.Errorf("object %s is a %s, not a blob", hash, t)
	}
	return payload, nil
}

// HashBlob computes the hash a blob of this content would store under,
// without writing anything.
func HashBlob(hasher func([]byte) string, content []byte) string {
	return hasher(Encode(TypeBlob, content))
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

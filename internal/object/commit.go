package object

import (
	"bytes"
	"fmt"
	"strings"
)

// Commit pairs a tree with its lineage and metadata. Hash is filled in
// when the commit is loaded or stored; it is not part of the payload.
type Commit struct {
	Hash      string
	TreeHash  string
	Parents   []string
	Author    string
	Timestamp int64
	Message   string
}

// MarshalCommit produces the canonical commit payload:
//
//	tree <hash>
//	parent <hash>        (zero or more)
//	author <identity>
//	timestamp <unix seconds>
//
//	<message>
func MarshalCommit(c *Commit) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash)
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "timestamp %d\n", c.Timestamp)
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	buf.WriteByte('\n')
	return buf.Bytes()
}

// UnmarshalCommit parses a commit payload.
func UnmarshalCommit(data []byte) (*Commit, error) {
	header, body, ok := strings.Cut(string(data), "\n\n")
	if !ok {
		return nil, fmt.Errorf("malformed commit: missing header/message separator")
	}

	c := &Commit{Message: strings.TrimSuffix(body, "\n")}
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("malformed commit header line %q", line)
		}
		switch key {
		case "tree":
			c.TreeHash = val
		case "parent":
			c.Parents = append(c.Parents, val)
		case "author":
			c.Author = val
		case "timestamp":
			ts, err := parseInt64(val)
			if err != nil {
				return nil, fmt.Errorf("malformed commit timestamp %q: %w", val, err)
			}
			c.Timestamp = ts
		default:
			return nil, fmt.Errorf("unknown commit header key %q", key)
		}
	}
	if c.TreeHash == "" {
		return nil, fmt.Errorf("malformed commit: no tree")
	}
	return c, nil
}

// PutCommit stores a commit object and returns its hash.
func PutCommit(s Storage, c *Commit) (string, error) {
	hash, err := s.Put(Encode(TypeCommit, MarshalCommit(c)))
	if err != nil {
		return "", err
	}
	c.Hash = hash
	return hash, nil
}

// GetCommit retrieves and parses a commit object by hash.
func GetCommit(s Storage, hash string) (*Commit, error) {
	data, err := s.Get(hash)
	if err != nil {
		return nil, err
	}
	typ, payload, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if typ != TypeCommit {
		return nil, fmt.Errorf("object %s is a %s, not a commit", hash, typ)
	}
	c, err := UnmarshalCommit(payload)
	if err != nil {
		return nil, err
	}
	c.Hash = hash
	return c, nil
}

package object

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStorage is a minimal in-memory Storage for object-layer tests.
type memStorage struct {
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) Put(content []byte) (string, error) {
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])
	m.objects[hash] = append([]byte(nil), content...)
	return hash, nil
}

func (m *memStorage) Get(hash string) ([]byte, error) {
	content, ok := m.objects[hash]
	if !ok {
		return nil, fmt.Errorf("object %s not found", hash)
	}
	return content, nil
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		payload []byte
	}{
		{name: "blob", typ: TypeBlob, payload: []byte("file contents\n")},
		{name: "empty blob", typ: TypeBlob, payload: []byte{}},
		{name: "tree", typ: TypeTree, payload: []byte("100644 blob abc\tname\n")},
		{name: "payload with nul", typ: TypeBlob, payload: []byte{0x00, 0x01, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			framed := Encode(tt.typ, tt.payload)

			typ, payload, err := Decode(framed)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, typ)
			assert.Equal(t, tt.payload, payload)
		})
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, _, err := Decode([]byte("no header terminator"))
	assert.Error(t, err)

	_, _, err = Decode([]byte("widget 3\x00abc"))
	assert.Error(t, err)

	// Header length disagrees with payload length.
	_, _, err = Decode([]byte("blob 5\x00abc"))
	assert.Error(t, err)
}

func TestBlobRoundtrip(t *testing.T) {
	s := newMemStorage()
	content := []byte("hello\n")

	hash, err := PutBlob(s, content)
	require.NoError(t, err)

	got, err := GetBlob(s, hash)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestGetBlobRejectsWrongType(t *testing.T) {
	s := newMemStorage()

	hash, err := s.Put(Encode(TypeTree, []byte{}))
	require.NoError(t, err)

	_, err = GetBlob(s, hash)
	assert.ErrorContains(t, err, "not a blob")
}

func TestCommitRoundtrip(t *testing.T) {
	s := newMemStorage()

	c := &Commit{
		TreeHash:  "deadbeef",
		Parents:   []string{"cafebabe"},
		Author:    "Grit User <user@grit.local>",
		Timestamp: 1700000000,
		Message:   "first line\n\nbody paragraph",
	}

	hash, err := PutCommit(s, c)
	require.NoError(t, err)
	assert.Equal(t, hash, c.Hash)

	got, err := GetCommit(s, hash)
	require.NoError(t, err)
	assert.Equal(t, c.TreeHash, got.TreeHash)
	assert.Equal(t, c.Parents, got.Parents)
	assert.Equal(t, c.Author, got.Author)
	assert.Equal(t, c.Timestamp, got.Timestamp)
	assert.Equal(t, c.Message, got.Message)
	assert.Equal(t, hash, got.Hash)
}

func TestRootCommitHasNoParent(t *testing.T) {
	s := newMemStorage()

	c := &Commit{
		TreeHash:  "deadbeef",
		Author:    "a <a@b>",
		Timestamp: 1,
		Message:   "root",
	}

	hash, err := PutCommit(s, c)
	require.NoError(t, err)

	got, err := GetCommit(s, hash)
	require.NoError(t, err)
	assert.Empty(t, got.Parents)
}

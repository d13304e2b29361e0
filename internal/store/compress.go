package store

import (
	"bytes"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstd frame magic, used to sniff whether stored bytes are compressed.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// compressor handles transparent zstd compression of object files.
// Encoders and decoders are pooled since commands may store many blobs.
type compressor struct {
	minSize  int
	encoders sync.Pool
	decoders sync.Pool
}

func newCompressor(minSize int) (*compressor, error) {
	if minSize == 0 {
		minSize = 1024
	}

	// Validate the options once before pooling.
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, err
	}
	enc.Close()

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	dec.Close()

	return &compressor{
		minSize: minSize,
		encoders: sync.Pool{
			New: func() interface{} {
				enc, _ := zstd.NewWriter(nil,
					zstd.WithEncoderLevel(zstd.SpeedDefault),
					zstd.WithEncoderConcurrency(1),
				)
				return enc
			},
		},
		decoders: sync.Pool{
			New: func() interface{} {
				dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
				return dec
			},
		},
	}, nil
}

// compress returns the bytes to write to disk and whether they were
// compressed. Content below the size threshold is stored verbatim, as is
// content that compression fails to shrink.
func (c *compressor) compress(content []byte) ([]byte, bool) {
	if len(content) < c.minSize {
		return content, false
	}

	enc := c.encoders.Get().(*zstd.Encoder)
	defer c.encoders.Put(enc)

	compressed := enc.EncodeAll(content, nil)
	if len(compressed) >= len(content) {
		return content, false
	}
	return compressed, true
}

// decompress restores original bytes from a stored object file. Bytes
// without the zstd magic are returned untouched.
func (c *compressor) decompress(content []byte) ([]byte, error) {
	if len(content) < len(zstdMagic) || !bytes.Equal(content[:4], zstdMagic) {
		return content, nil
	}

	dec := c.decoders.Get().(*zstd.Decoder)
	defer c.decoders.Put(dec)

	return dec.DecodeAll(content, nil)
}

package codec

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// decoderPool keeps synchronous zstd stream decoders for reuse. All
// decoders in one pool share the same options, dictionaries included.
type decoderPool struct {
	pool *sync.Pool
	opts []zstd.DOption
}

func newDecoderPool(opts ...zstd.DOption) *decoderPool {
	p := &decoderPool{
		opts: append([]zstd.DOption{zstd.WithDecoderConcurrency(1)}, opts...),
	}
	p.pool = &sync.Pool{
		New: func() any {
			dec, err := zstd.NewReader(nil, p.opts...)
			if err != nil {
				return nil
			}
			return dec
		},
	}
	return p
}

// get returns a decoder reading from r. The caller must call release when
// done. If an error is returned, no release is needed.
func (p *decoderPool) get(r io.Reader) (dec *zstd.Decoder, release func(), err error) {
	dec, ok := p.pool.Get().(*zstd.Decoder)
	if !ok {
		// New failed; build one directly to surface the error.
		dec, err = zstd.NewReader(r, p.opts...)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	}
	if err := dec.Reset(r); err != nil {
		dec.Close()
		dec, err = zstd.NewReader(r, p.opts...)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	}
	return dec, func() {
		_ = dec.Reset(nil) //nolint:errcheck // clearing state before pool return
		p.pool.Put(dec)
	}, nil
}

// pooledReader returns its decoder to the pool on Close.
type pooledReader struct {
	dec     *zstd.Decoder
	release func()
	once    sync.Once
}

func (r *pooledReader) Read(p []byte) (int, error) {
	return r.dec.Read(p)
}

func (r *pooledReader) Close() error {
	r.once.Do(r.release)
	return nil
}

package codec

import (
	"bytes"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonCorpus returns many small, similar documents, the shape dictionary
// training is meant for.
func jsonCorpus(n int) [][]byte {
	rng := rand.New(rand.NewPCG(7, 11))
	words := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"}
	out := make([][]byte, n)
	for i := range out {
		out[i] = fmt.Appendf(nil,
			`{"id":%d,"name":"%s-%s","enabled":%t,"weight":%d,"tags":["%s","%s"],"owner":{"team":"%s","region":"eu-west-%d"}}`,
			i, words[rng.IntN(len(words))], words[rng.IntN(len(words))], rng.IntN(2) == 0,
			rng.IntN(1000), words[rng.IntN(len(words))], words[rng.IntN(len(words))],
			words[rng.IntN(len(words))], rng.IntN(3)+1)
	}
	return out
}

func TestZstdTrainAndLoad(t *testing.T) {
	t.Parallel()

	corpus := jsonCorpus(400)

	trainer, err := NewZstd()
	require.NoError(t, err)
	defer trainer.Close()

	dict, err := trainer.Train(corpus)
	require.NoError(t, err)
	require.NotEmpty(t, dict)

	writer, err := NewZstd()
	require.NoError(t, err)
	defer writer.Close()
	require.NoError(t, writer.LoadDictionary(dict))
	assert.Equal(t, dict, writer.Dictionary())

	compressed := make([][]byte, len(corpus))
	for i, doc := range corpus {
		compressed[i], err = writer.Compress(doc)
		require.NoError(t, err)
	}

	reader, err := NewZstd()
	require.NoError(t, err)
	defer reader.Close()
	require.NoError(t, reader.LoadDictionary(dict))

	for i, doc := range corpus {
		got, err := reader.Decompress(compressed[i], 0)
		require.NoError(t, err)
		require.Equal(t, doc, got)

		rc, err := reader.NewReader(bytes.NewReader(compressed[i]))
		require.NoError(t, err)
		got, err = io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		require.Equal(t, doc, got)
	}

	// Without the dictionary the frames cannot be decoded.
	plain, err := NewZstd()
	require.NoError(t, err)
	defer plain.Close()
	_, err = plain.Decompress(compressed[0], 0)
	require.ErrorIs(t, err, ErrDecompression)
}

func TestZstdTrainSkipsSmallCorpus(t *testing.T) {
	t.Parallel()

	c, err := NewZstd()
	require.NoError(t, err)
	defer c.Close()

	dict, err := c.Train([][]byte{[]byte("tiny"), nil, []byte("corpus")})
	require.NoError(t, err)
	assert.Nil(t, dict)
}

func TestZstdTrainingDisabled(t *testing.T) {
	t.Parallel()

	c, err := NewZstd(WithDictCapacity(0))
	require.NoError(t, err)
	defer c.Close()

	dict, err := c.Train(jsonCorpus(400))
	require.NoError(t, err)
	assert.Nil(t, dict)
}

func TestZstdLoadDictionary(t *testing.T) {
	t.Parallel()

	c, err := NewZstd()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.LoadDictionary(nil))
	assert.Nil(t, c.Dictionary())
	require.ErrorIs(t, c.LoadDictionary([]byte("short")), ErrDictionary)
	require.ErrorIs(t, c.LoadDictionary(append(bytes.Clone(dictMagic), "not a dictionary"...)), ErrDictionary)
	assert.Nil(t, c.Dictionary())

	raw := bytes.Repeat([]byte("raw history "), 20)
	require.NoError(t, c.LoadDictionary(raw))
	assert.Equal(t, raw, c.Dictionary())

	doc := []byte("raw history raw history and something new")
	compressed, err := c.Compress(doc)
	require.NoError(t, err)
	got, err := c.Decompress(compressed, 0)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestZstdTrainRedundantCorpus(t *testing.T) {
	t.Parallel()

	body := bytes.Repeat([]byte("lorem ipsum dolor sit amet "), 80)
	short := make([][]byte, 400)
	for i := range short {
		short[i] = fmt.Appendf(nil, `{"id":%d,"name":"service-%d","enabled":true}`, i, i)
	}

	for name, corpus := range map[string][][]byte{
		"identical": {body, body},
		"near identical": {body, append(bytes.Clone(body), '!')},
		"short json": short,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			trainer, err := NewZstd()
			require.NoError(t, err)
			defer trainer.Close()

			var dict []byte
			require.NotPanics(t, func() {
				dict, err = trainer.Train(corpus)
			})
			require.NoError(t, err)
			require.NotEmpty(t, dict)

			c, err := NewZstd()
			require.NoError(t, err)
			defer c.Close()
			require.NoError(t, c.LoadDictionary(dict))
			for _, doc := range corpus {
				compressed, err := c.Compress(doc)
				require.NoError(t, err)
				got, err := c.Decompress(compressed, 0)
				require.NoError(t, err)
				require.Equal(t, doc, got)
			}
		})
	}
}

func TestZstdDecompressChecksFrameSize(t *testing.T) {
	t.Parallel()

	c, err := NewZstd()
	require.NoError(t, err)
	defer c.Close()

	compressed, err := c.Compress(make([]byte, 64<<10))
	require.NoError(t, err)
	var h zstd.Header
	require.NoError(t, h.Decode(compressed))
	require.True(t, h.HasFCS)

	_, err = c.Decompress(compressed, 1024)
	require.ErrorIs(t, err, ErrSizeOverflow)

	got, err := c.Decompress(compressed, 64<<10)
	require.NoError(t, err)
	assert.Len(t, got, 64<<10)
}

func TestZstdLevel(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct{ in, want int }{
		{0, DefaultZstdLevel},
		{-5, DefaultZstdLevel},
		{23, DefaultZstdLevel},
		{1, 1},
		{19, 19},
	} {
		c, err := NewZstd(WithZstdLevel(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, c.Level())
		require.NoError(t, c.Close())
	}
}

func TestZstdConcurrentUse(t *testing.T) {
	t.Parallel()

	c, err := NewZstd()
	require.NoError(t, err)
	defer c.Close()

	corpus := jsonCorpus(64)
	var wg sync.WaitGroup
	errs := make(chan error, len(corpus))
	for _, doc := range corpus {
		wg.Add(1)
		go func() {
			defer wg.Done()
			compressed, err := c.Compress(doc)
			if err != nil {
				errs <- err
				return
			}
			got, err := c.Decompress(compressed, uint64(len(doc)))
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(doc, got) {
				errs <- fmt.Errorf("mismatch for %q", doc)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

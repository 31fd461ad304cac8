package nla

import (
	"context"
	"fmt"
	"testing"

	"github.com/meigma/nla/codec"
	"github.com/meigma/nla/internal/testutil"
)

var benchSinkBytes []byte

func benchFiles(count int) map[string][]byte {
	files := testutil.TextFiles(count)
	for i := range count / 8 {
		files[fmt.Sprintf("bin/blob%03d.dat", i)] = testutil.RandomBytes(uint64(i), 16<<10)
	}
	return files
}

func BenchmarkCreate(b *testing.B) {
	files := benchFiles(256)
	src := b.TempDir()
	testutil.WriteTree(b, src, files)

	for _, tag := range codec.DefaultRegistry().Tags() {
		b.Run(tag.String(), func(b *testing.B) {
			c, err := codec.DefaultRegistry().New(tag)
			if err != nil {
				b.Fatal(err)
			}
			defer codec.Close(c)
			dest := b.TempDir()
			b.ReportAllocs()
			for b.Loop() {
				_, err := Create(context.Background(), src, dest,
					CreateWithName("bench"), CreateWithCodec(c), CreateWithForce(true))
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkReadFile(b *testing.B) {
	files := benchFiles(256)
	src := b.TempDir()
	testutil.WriteTree(b, src, files)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}

	for _, tag := range codec.DefaultRegistry().Tags() {
		b.Run(tag.String(), func(b *testing.B) {
			c, err := codec.DefaultRegistry().New(tag)
			if err != nil {
				b.Fatal(err)
			}
			defer codec.Close(c)
			res, err := Create(context.Background(), src, b.TempDir(), CreateWithName("bench"), CreateWithCodec(c))
			if err != nil {
				b.Fatal(err)
			}
			a, err := Open(res.RootPath)
			if err != nil {
				b.Fatal(err)
			}
			defer a.Close()

			b.ReportAllocs()
			i := 0
			for b.Loop() {
				benchSinkBytes, err = a.ReadFile(names[i%len(names)])
				if err != nil {
					b.Fatal(err)
				}
				i++
			}
		})
	}
}

// Package nla reads and writes NLA archives: sealed, compressed,
// multi-volume containers of a directory tree with random access by path.
//
// An archive is a root volume holding a fixed header, an optional codec
// dictionary, a path index and entry data, plus zero or more companion
// volumes holding only data. Every entry is compressed on its own with
// the single codec named in the header, so any file can be read without
// touching its neighbours.
//
// Volume files follow a fixed naming convention: a single-volume archive
// is "<name>.nla"; a split archive is "<name>.root.nla" with companions
// "<name>.1.nla", "<name>.2.nla" and so on. [Open] discovers companions
// from the root file name alone.
//
// # Building
//
//	res, err := nla.Create(ctx, "./assets", "./out",
//	    nla.CreateWithName("assets"),
//	    nla.CreateWithCodec(zstdCodec),
//	    nla.CreateWithMaxVolumeSize(64<<20),
//	)
//
// # Reading
//
//	a, err := nla.Open(res.RootPath)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	data, err := a.ReadFile("textures/grass.png")
//
// [Archive] implements fs.FS, fs.StatFS, fs.ReadFileFS and fs.ReadDirFS
// with directories synthesized from entry paths.
//
// # Concurrency
//
// The index of an open Archive is immutable. ReadFile, Verify, Extract
// and the fs.FS methods serialize access to each volume internally. The
// Sections and streams returned by OpenCompressed and OpenStream share
// their volume's file position: callers must not use two of them over
// the same volume at once, nor use one while another read runs.
package nla

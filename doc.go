// Package zipkit implements the write path of a ZIP archive engine: adding
// entries (files, directories, symlinks) to an archive, removing entries,
// and maintaining the central directory and end-of-central-directory
// structures, including the ZIP64 extension, so the file remains a valid,
// randomly-readable ZIP container after every mutation.
//
// Mutations are performed in place on the backing store. AddEntry writes the
// new entry body over the old central directory, patches the local header
// once the compressed size and checksum are known, then re-appends the
// directory and trailer. Remove rewrites the archive into a temporary one
// and swaps it in atomically. RemoveAll truncates the backing file for fast
// suffix removal.
//
// # Quick Start
//
// Add a file to a new archive:
//
//	a, err := zipkit.Open("out.zip", zipkit.ModeCreate)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	err = a.AddFile(ctx, "docs/readme.md", "./README.md",
//	    zipkit.AddWithCompression(zipkit.Deflate),
//	)
//
// Stream arbitrary payload through a Provider:
//
//	payload := []byte("hello")
//	err = a.AddEntry(ctx, "hello.txt", zipkit.EntryTypeFile,
//	    uint64(len(payload)), zipkit.BytesProvider(payload))
//
// Remove an entry:
//
//	err = a.Remove(ctx, a.Entry("hello.txt"))
//
// # Concurrency
//
// An Archive supports at most one in-flight mutation; a second concurrent
// mutation fails with ErrConcurrentMutation. Cancellation is cooperative:
// the caller's context is polled at chunk granularity, and an interrupted
// AddEntry rolls the archive back to its prior byte-exact state before
// returning.
package zipkit

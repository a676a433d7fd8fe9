package zipkit

import (
	"io/fs"
	"log/slog"
	"time"
)

// DefaultBufferSize is the chunk size used for payload streaming and
// bounded-memory copies when no AddWithBufferSize option is set.
const DefaultBufferSize = 32 * 1024

// Default permissions applied when no AddWithPermissions option is set.
const (
	defaultFilePermissions      fs.FileMode = 0o644
	defaultDirectoryPermissions fs.FileMode = 0o755
)

// openConfig holds configuration for opening an archive.
type openConfig struct {
	logger *slog.Logger
}

// OpenOption configures Open and OpenMemory.
type OpenOption func(*openConfig)

// WithLogger attaches a structured logger to the archive. Mutations log an
// Info line on completion and Debug details along the way. Without this
// option logging is discarded.
func WithLogger(l *slog.Logger) OpenOption {
	return func(cfg *openConfig) {
		cfg.logger = l
	}
}

// addConfig holds configuration for a single AddEntry call.
type addConfig struct {
	method      CompressionMethod
	level       int
	permissions fs.FileMode
	modTime     time.Time
	bufferSize  int
	progress    ProgressFunc
	consumer    Consumer
}

// AddOption configures AddEntry and AddFile.
type AddOption func(*addConfig)

// AddWithCompression sets the compression method for the entry. Directories
// and symlinks are always stored uncompressed regardless of this option.
func AddWithCompression(m CompressionMethod) AddOption {
	return func(cfg *addConfig) {
		cfg.method = m
	}
}

// AddWithCompressionLevel sets the encoder level for Deflate. Zero selects
// the encoder's default.
func AddWithCompressionLevel(level int) AddOption {
	return func(cfg *addConfig) {
		cfg.level = level
	}
}

// AddWithPermissions overrides the POSIX permission bits recorded in the
// entry's external file attributes. Defaults are 0644 for files and
// symlinks, 0755 for directories.
func AddWithPermissions(perm fs.FileMode) AddOption {
	return func(cfg *addConfig) {
		cfg.permissions = perm.Perm()
	}
}

// AddWithModTime overrides the modification timestamp recorded in the
// entry's headers. The default is the time of the call.
func AddWithModTime(t time.Time) AddOption {
	return func(cfg *addConfig) {
		cfg.modTime = t
	}
}

// AddWithBufferSize sets the streaming chunk size in bytes. Zero uses
// DefaultBufferSize.
func AddWithBufferSize(n int) AddOption {
	return func(cfg *addConfig) {
		if n > 0 {
			cfg.bufferSize = n
		}
	}
}

// AddWithProgress registers a callback receiving byte-level progress while
// the entry payload streams into the archive.
func AddWithProgress(fn ProgressFunc) AddOption {
	return func(cfg *addConfig) {
		cfg.progress = fn
	}
}

// AddWithConsumer mirrors every chunk written to the archive into fn. A
// Consumer error aborts the stream; returning a context error triggers the
// same rollback as caller cancellation.
func AddWithConsumer(fn Consumer) AddOption {
	return func(cfg *addConfig) {
		cfg.consumer = fn
	}
}

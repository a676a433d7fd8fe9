// Command zipkit edits ZIP archives in place: list entries, add files,
// remove single entries, or truncate an archive at an entry.
//
// Usage:
//
//	zipkit list    <archive>
//	zipkit add     <archive> <file>...
//	zipkit remove  <archive> <entry>
//	zipkit truncate <archive> <entry>
//
// Defaults for compression and buffer size are read from
// ~/.zipkit/config.yaml when present.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/projectwizards/zipkit"
	"github.com/projectwizards/zipkit/internal/config"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, archivePath, args := os.Args[1], os.Args[2], os.Args[3:]
	switch cmd {
	case "list":
		err = runList(archivePath)
	case "add":
		err = runAdd(ctx, cfg, archivePath, args)
	case "remove":
		err = runRemove(ctx, cfg, archivePath, args)
	case "truncate":
		err = runTruncate(ctx, cfg, archivePath, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: zipkit <list|add|remove|truncate> <archive> [args]")
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", red("error:"), err)
	os.Exit(1)
}

func openOptions(cfg *config.Config) []zipkit.OpenOption {
	if !cfg.Verbose {
		return nil
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return []zipkit.OpenOption{zipkit.WithLogger(logger)}
}

func runList(path string) error {
	a, err := zipkit.Open(path, zipkit.ModeRead)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, e := range a.Entries() {
		kind := green(e.Type().String())
		if e.Type() != zipkit.EntryTypeFile {
			kind = yellow(e.Type().String())
		}
		fmt.Printf("%-9s %s %10d %10d  %s\n",
			kind, e.Mode(), e.UncompressedSize(), e.CompressedSize(), cyan(e.Path()))
	}
	return nil
}

func runAdd(ctx context.Context, cfg *config.Config, path string, files []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	method := fs.String("c", cfg.Compression, "compression method: store, deflate, or zstd")
	level := fs.Int("level", cfg.Level, "deflate compression level")
	if err := fs.Parse(files); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("add: no files given")
	}

	m, err := parseMethod(*method)
	if err != nil {
		return err
	}

	a, err := openForUpdate(cfg, path)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, f := range fs.Args() {
		opts := []zipkit.AddOption{
			zipkit.AddWithCompression(m),
			zipkit.AddWithCompressionLevel(*level),
			zipkit.AddWithBufferSize(cfg.BufferSize),
		}
		if err := a.AddFile(ctx, filepath.ToSlash(filepath.Clean(f)), f, opts...); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", green("added"), f)
	}
	return nil
}

func runRemove(ctx context.Context, cfg *config.Config, path string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("remove: expected exactly one entry path")
	}
	a, err := openForUpdate(cfg, path)
	if err != nil {
		return err
	}
	defer a.Close()

	e := a.Entry(args[0])
	if e == nil {
		return fmt.Errorf("remove %s: %w", args[0], zipkit.ErrEntryNotFound)
	}
	if err := a.Remove(ctx, e); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", green("removed"), e.Path())
	return nil
}

func runTruncate(ctx context.Context, cfg *config.Config, path string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("truncate: expected exactly one entry path")
	}
	a, err := openForUpdate(cfg, path)
	if err != nil {
		return err
	}
	defer a.Close()

	e := a.Entry(args[0])
	if e == nil {
		return fmt.Errorf("truncate %s: %w", args[0], zipkit.ErrEntryNotFound)
	}
	if err := a.RemoveAll(ctx, e); err != nil {
		return err
	}
	fmt.Printf("%s at %s\n", green("truncated"), e.Path())
	return nil
}

func openForUpdate(cfg *config.Config, path string) (*zipkit.Archive, error) {
	a, err := zipkit.Open(path, zipkit.ModeUpdate, openOptions(cfg)...)
	if err == nil {
		return a, nil
	}
	if os.IsNotExist(err) {
		return zipkit.Open(path, zipkit.ModeCreate, openOptions(cfg)...)
	}
	return nil, err
}

func parseMethod(s string) (zipkit.CompressionMethod, error) {
	switch s {
	case "store", "":
		return zipkit.Store, nil
	case "deflate":
		return zipkit.Deflate, nil
	case "zstd":
		return zipkit.Zstd, nil
	default:
		return 0, fmt.Errorf("unknown compression method %q", s)
	}
}

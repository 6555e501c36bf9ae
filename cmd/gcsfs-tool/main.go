// Package main is a command-line client for a GCS-backed filesystem
// engine: stat, list, cat, write, mkdir, rm, and mv subcommands against
// the gcsfs package. No CLI framework appears anywhere in this
// project's dependency stack, so this tool is built on the standard
// library's flag package, subcommand-style (flag.NewFlagSet per verb).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/Spider8801/gcsfs"
	"github.com/Spider8801/gcsfs/internal/gcsauth"
	"github.com/Spider8801/gcsfs/internal/gcsrequest"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	fs, err := buildFileSystem(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gcsfs-tool: %v\n", err)
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var cmdErr error
	switch cmd {
	case "stat":
		cmdErr = runStat(ctx, fs, args)
	case "list":
		cmdErr = runList(ctx, fs, args)
	case "cat":
		cmdErr = runCat(ctx, fs, args)
	case "write":
		cmdErr = runWrite(ctx, fs, args)
	case "mkdir":
		cmdErr = runMkdir(ctx, fs, args)
	case "rm":
		cmdErr = runRm(ctx, fs, args)
	case "mv":
		cmdErr = runMv(ctx, fs, args)
	default:
		usage()
		os.Exit(2)
	}

	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "gcsfs-tool: %v\n", cmdErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: gcsfs-tool <stat|list|cat|write|mkdir|rm|mv> [args]")
}

func buildFileSystem(ctx context.Context) (*gcsfs.FileSystem, error) {
	auth, err := gcsauth.NewADCAuthProvider(ctx, "https://www.googleapis.com/auth/devstorage.read_write")
	if err != nil {
		return nil, fmt.Errorf("initializing GCS credentials: %w", err)
	}
	factory := gcsrequest.NewRealFactory(&http.Client{})
	return gcsfs.NewFileSystem(factory, auth, gcsauth.GCEZoneProvider{}, gcsfs.Options{}), nil
}

func runStat(ctx context.Context, fs *gcsfs.FileSystem, args []string) error {
	fset := flag.NewFlagSet("stat", flag.ExitOnError)
	fset.Parse(args)
	if fset.NArg() != 1 {
		return fmt.Errorf("usage: stat <gs://path>")
	}
	stats, err := fs.Stat(ctx, fset.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("size=%d mod_time=%s is_directory=%t generation=%d\n",
		stats.Size, stats.ModTime.Format("2006-01-02T15:04:05Z07:00"), stats.IsDirectory, stats.Generation)
	return nil
}

func runList(ctx context.Context, fs *gcsfs.FileSystem, args []string) error {
	fset := flag.NewFlagSet("list", flag.ExitOnError)
	recursive := fset.Bool("r", false, "list objects matching the glob path+\"*\" ('*' does not match '/', so subdirectories are not descended into)")
	fset.Parse(args)
	if fset.NArg() != 1 {
		return fmt.Errorf("usage: list [-r] <gs://path>")
	}

	var entries []string
	var err error
	if *recursive {
		entries, err = fs.GetMatchingPaths(ctx, fset.Arg(0)+"*")
	} else {
		entries, err = fs.GetChildren(ctx, fset.Arg(0))
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Println(e)
	}
	return nil
}

func runCat(ctx context.Context, fs *gcsfs.FileSystem, args []string) error {
	fset := flag.NewFlagSet("cat", flag.ExitOnError)
	fset.Parse(args)
	if fset.NArg() != 1 {
		return fmt.Errorf("usage: cat <gs://path>")
	}

	stats, err := fs.Stat(ctx, fset.Arg(0))
	if err != nil {
		return err
	}
	h, err := fs.OpenForRead(ctx, fset.Arg(0))
	if err != nil {
		return err
	}
	defer h.Close()

	const chunk = 4 << 20
	var offset int64
	for offset < stats.Size {
		n := int64(chunk)
		if remaining := stats.Size - offset; remaining < n {
			n = remaining
		}
		data, err := h.Read(ctx, offset, n)
		if err != nil && !gcsfs.IsOutOfRange(err) {
			return err
		}
		if _, werr := os.Stdout.Write(data); werr != nil {
			return werr
		}
		offset += int64(len(data))
		if len(data) == 0 {
			break
		}
	}
	return nil
}

func runWrite(ctx context.Context, fs *gcsfs.FileSystem, args []string) error {
	fset := flag.NewFlagSet("write", flag.ExitOnError)
	appendMode := fset.Bool("a", false, "append to the existing object instead of overwriting it")
	fset.Parse(args)
	if fset.NArg() != 1 {
		return fmt.Errorf("usage: write [-a] <gs://path>  (reads body from stdin)")
	}

	body, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	var h *gcsfs.WriteHandle
	if *appendMode {
		h, err = fs.OpenForAppend(ctx, fset.Arg(0))
	} else {
		h, err = fs.OpenForWrite(ctx, fset.Arg(0))
	}
	if err != nil {
		return err
	}
	if _, err := h.Write(body); err != nil {
		return err
	}
	return h.Close(ctx)
}

func runMkdir(ctx context.Context, fs *gcsfs.FileSystem, args []string) error {
	fset := flag.NewFlagSet("mkdir", flag.ExitOnError)
	fset.Parse(args)
	if fset.NArg() != 1 {
		return fmt.Errorf("usage: mkdir <gs://path>")
	}
	return fs.CreateDir(ctx, fset.Arg(0))
}

func runRm(ctx context.Context, fs *gcsfs.FileSystem, args []string) error {
	fset := flag.NewFlagSet("rm", flag.ExitOnError)
	recursive := fset.Bool("r", false, "remove a directory and everything under it")
	fset.Parse(args)
	if fset.NArg() != 1 {
		return fmt.Errorf("usage: rm [-r] <gs://path>")
	}

	if *recursive {
		counts, err := fs.DeleteRecursively(ctx, fset.Arg(0))
		if err != nil {
			return err
		}
		if counts.UndeletedFiles > 0 || counts.UndeletedDirs > 0 {
			fmt.Fprintf(os.Stderr, "warning: %d files and %d directories could not be deleted\n",
				counts.UndeletedFiles, counts.UndeletedDirs)
		}
		return nil
	}
	return fs.DeleteDir(ctx, fset.Arg(0))
}

func runMv(ctx context.Context, fs *gcsfs.FileSystem, args []string) error {
	fset := flag.NewFlagSet("mv", flag.ExitOnError)
	fset.Parse(args)
	if fset.NArg() != 2 {
		return fmt.Errorf("usage: mv <gs://src> <gs://dst>")
	}
	return fs.Rename(ctx, fset.Arg(0), fset.Arg(1))
}

package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sonemaro/sauce/pkg/logger"
	"github.com/spf13/afero"
)

func (x *Extractor) untar(ctx context.Context, r io.Reader, dest string) (Result, error) {
	var result Result
	tr := tar.NewReader(r)

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		if err != nil {
			return result, err
		}

		target, ok := within(dest, header.Name)
		if !ok {
			x.log.WithFields(logger.Fields{
				"entry": header.Name,
			}).Warn("Skipping entry outside destination")
			result.Skipped++
			continue
		}
		if x.crossesLink(dest, target) {
			x.log.WithFields(logger.Fields{
				"entry": header.Name,
			}).Warn("Skipping entry below a symlink")
			result.Skipped++
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := x.fs.MkdirAll(target, dirMode(header)); err != nil {
				return result, err
			}
			result.Dirs++

		case tar.TypeReg:
			if err := x.writeFile(tr, target, header); err != nil {
				return result, err
			}
			result.Files++

		case tar.TypeSymlink:
			if x.writeSymlink(dest, target, header) {
				result.Symlinks++
			} else {
				result.Skipped++
			}

		default:
			x.log.WithFields(logger.Fields{
				"entry": header.Name,
				"type":  string(header.Typeflag),
			}).Debug("Skipping unsupported entry type")
			result.Skipped++
		}
	}
}

func (x *Extractor) writeFile(r io.Reader, target string, header *tar.Header) error {
	if err := x.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	out, err := x.fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode).Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return out.Close()
}

// writeSymlink creates the link when the filesystem supports it and the
// link target stays inside dest.
func (x *Extractor) writeSymlink(dest, target string, header *tar.Header) bool {
	linker, ok := x.fs.(afero.Linker)
	if !ok {
		x.log.WithFields(logger.Fields{
			"entry": header.Name,
		}).Debug("Filesystem does not support symlinks")
		return false
	}

	if !x.linkStaysInside(dest, filepath.Dir(target), header.Linkname) {
		x.log.WithFields(logger.Fields{
			"entry":  header.Name,
			"target": header.Linkname,
		}).Warn("Skipping symlink pointing outside destination")
		return false
	}

	if err := x.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return false
	}
	if err := linker.SymlinkIfPossible(header.Linkname, target); err != nil {
		x.log.WithFields(logger.Fields{
			"entry": header.Name,
			"error": err,
		}).Warn("Failed to create symlink")
		return false
	}
	return true
}

// linkStaysInside follows linkname from dir one component at a time and
// reports whether it never leaves dest. Absolute targets and targets that
// pass through an existing symlink are refused.
func (x *Extractor) linkStaysInside(dest, dir, linkname string) bool {
	if linkname == "" || filepath.IsAbs(linkname) {
		return false
	}

	current := dir
	for _, part := range strings.Split(filepath.ToSlash(linkname), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			current = filepath.Dir(current)
		default:
			current = filepath.Join(current, part)
		}

		if _, ok := within(dest, mustRel(dest, current)); !ok {
			return false
		}
		if part != ".." && x.isSymlink(current) {
			return false
		}
	}
	return true
}

// crossesLink reports whether any component of target below dest is an
// existing symlink, or cannot be inspected
func (x *Extractor) crossesLink(dest, target string) bool {
	rel, err := filepath.Rel(dest, target)
	if err != nil {
		return true
	}

	current := dest
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "" || part == "." {
			continue
		}
		current = filepath.Join(current, part)

		lstater, ok := x.fs.(afero.Lstater)
		if !ok {
			return false
		}
		info, _, err := lstater.LstatIfPossible(current)
		if os.IsNotExist(err) {
			return false
		}
		if err != nil || info.Mode()&os.ModeSymlink != 0 {
			return true
		}
	}
	return false
}

func (x *Extractor) isSymlink(path string) bool {
	lstater, ok := x.fs.(afero.Lstater)
	if !ok {
		return false
	}
	info, _, err := lstater.LstatIfPossible(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// within joins name onto dest and reports whether the result stays in dest
func within(dest, name string) (string, bool) {
	if name == "" || filepath.IsAbs(name) {
		return "", false
	}

	target := filepath.Join(dest, name)
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}

func mustRel(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return string(filepath.Separator)
	}
	return rel
}

func dirMode(header *tar.Header) os.FileMode {
	mode := os.FileMode(header.Mode).Perm()
	if mode == 0 {
		return 0755
	}
	return mode | 0700
}

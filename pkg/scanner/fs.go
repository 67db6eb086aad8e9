package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// maxLinkHops bounds the links followed while resolving one path
const maxLinkHops = 255

var errTooManyLinks = errors.New("too many levels of symbolic links")

// realPath returns the absolute location of name with every symlink in it
// resolved. Filesystems without link support resolve to the cleaned
// absolute path.
func realPath(fs afero.Fs, name string) (string, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", err
	}

	lstater, canLstat := fs.(afero.Lstater)
	reader, canRead := fs.(afero.LinkReader)
	if !canLstat || !canRead {
		return abs, nil
	}

	pending := splitPath(abs)
	current := string(filepath.Separator)
	hops := 0

	for len(pending) > 0 {
		part := pending[0]
		pending = pending[1:]

		switch part {
		case "", ".":
			continue
		case "..":
			current = filepath.Dir(current)
			continue
		}

		next := filepath.Join(current, part)
		info, _, err := lstater.LstatIfPossible(next)
		if err != nil {
			return "", err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			current = next
			continue
		}

		hops++
		if hops > maxLinkHops {
			return "", &os.PathError{Op: "resolve", Path: name, Err: errTooManyLinks}
		}

		target, err := reader.ReadlinkIfPossible(next)
		if err != nil {
			return "", err
		}
		if filepath.IsAbs(target) {
			current = string(filepath.Separator)
		}
		pending = append(splitPath(target), pending...)
	}

	return current, nil
}

func splitPath(path string) []string {
	return strings.Split(filepath.ToSlash(path), "/")
}

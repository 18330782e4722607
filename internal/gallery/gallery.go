// Package gallery lists the picture-book pages available to readers.
package gallery

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var pageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// List returns the page image filenames under dir. Names that are plain
// numbers sort numerically so "2.png" comes before "10.png"; everything
// else sorts lexically after the numbered pages.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if pageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		ni, iOK := pageNumber(names[i])
		nj, jOK := pageNumber(names[j])
		switch {
		case iOK && jOK:
			if ni != nj {
				return ni < nj
			}
			return names[i] < names[j]
		case iOK:
			return true
		case jOK:
			return false
		default:
			return names[i] < names[j]
		}
	})
	return names, nil
}

// Contains reports whether name is a listable page image in dir. It
// rejects path traversal so callers can pass user-supplied filenames.
func Contains(dir, name string) bool {
	if name == "" || name != filepath.Base(name) {
		return false
	}
	if !pageExtensions[strings.ToLower(filepath.Ext(name))] {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}

func pageNumber(name string) (int, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	n, err := strconv.Atoi(stem)
	if err != nil {
		return 0, false
	}
	return n, true
}

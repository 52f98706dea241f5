// Package export turns an inferred layout and its pages into files.
package export

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/foomo/layoutinfer/collection"
	"github.com/foomo/layoutinfer/errors"
)

// File is one output file relative to the export root.
type File struct {
	Path string
	Data []byte
}

// Engine renders a build result.
type Engine interface {
	Export(res *collection.Result) ([]File, error)
}

// WriteFiles writes files below dir, creating directories as needed.
func WriteFiles(dir string, files []File) error {
	for _, f := range files {
		target := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create directory").
				WithContext("path", filepath.Dir(target)).
				Build()
		}
		// #nosec G306 -- exported sites are public content
		if err := os.WriteFile(target, f.Data, 0o644); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to write file").
				WithContext("path", target).
				Build()
		}
	}
	return nil
}

// pagePath maps a pathname onto a slash separated file path without
// extension. index reports pages that stand for their directory.
func pagePath(pathname string) (name string, index bool) {
	p := strings.Trim(path.Clean("/"+pathname), "/")
	switch ext := path.Ext(p); ext {
	case ".html", ".htm":
		p = strings.TrimSuffix(p, ext)
	}
	if p == "" || p == "." {
		return "", true
	}
	if path.Base(p) == "index" {
		return strings.TrimSuffix(strings.TrimSuffix(p, "index"), "/"), true
	}
	if strings.HasSuffix(pathname, "/") {
		return p, true
	}
	return p, false
}

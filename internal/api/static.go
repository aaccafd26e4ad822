// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package api

import (
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samber/oops"
)

// mountStatic serves files under root at prefix. Directory listings are
// not served.
func mountStatic(r chi.Router, prefix, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return oops.Code("STATIC_ROOT_INVALID").With("root", root).Wrap(err)
	}
	if !info.IsDir() {
		return oops.Code("STATIC_ROOT_INVALID").With("root", root).Errorf("static root is not a directory")
	}

	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		return oops.Code("STATIC_URL_INVALID").With("url", prefix).Errorf("static url cannot be the site root")
	}

	r.Get(prefix+"/*", http.StripPrefix(prefix, http.FileServer(fileOnlyFS{http.Dir(root)})).ServeHTTP)
	return nil
}

// fileOnlyFS hides directories so that no listing is ever rendered.
type fileOnlyFS struct {
	fs http.FileSystem
}

func (f fileOnlyFS) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

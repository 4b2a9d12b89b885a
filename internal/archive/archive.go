// Package archive expands zip bundles into individually typed sub-files.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"path"
	"strings"

	"github.com/logward/logward/internal/errors"
)

// Member is one extracted archive entry.
type Member struct {
	// Name is the base filename of the entry, without directories.
	Name string

	// Data is the decompressed content.
	Data []byte
}

// Expand unpacks a zip archive into its file members, skipping directory
// entries. Each member must be re-validated before parsing; Expand itself
// only guards against unreadable archives.
func Expand(data []byte) ([]Member, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCategoryValidation, errors.CodeCorruptedArchive,
			"failed to open archive", err)
	}

	var members []Member
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCategoryValidation, errors.CodeCorruptedArchive,
				"failed to open archive member "+f.Name, err)
		}
		content, readErr := io.ReadAll(rc)
		closeErr := rc.Close()
		if readErr != nil {
			return nil, errors.Wrap(errors.ErrCategoryValidation, errors.CodeCorruptedArchive,
				"failed to read archive member "+f.Name, readErr)
		}
		if closeErr != nil {
			return nil, errors.Wrap(errors.ErrCategoryValidation, errors.CodeCorruptedArchive,
				"failed to read archive member "+f.Name, closeErr)
		}

		members = append(members, Member{
			Name: path.Base(f.Name),
			Data: content,
		})
	}

	return members, nil
}

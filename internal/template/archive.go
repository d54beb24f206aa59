package template

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ferrors "github.com/LinhMuks-DFox/Smart-Latex/internal/foundation/errors"
)

// zipDirectory snapshots srcDir into a zip at destZip. Hidden entries (the
// .git directory of cloned sources, editor droppings) are skipped.
func zipDirectory(srcDir, destZip string) error {
	out, err := os.Create(destZip)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "create template archive").
			WithContext("path", destZip).Build()
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != srcDir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		_ = zw.Close()
		return ferrors.WrapError(err, ferrors.CategoryStorage, "snapshot template directory").
			WithContext("dir", srcDir).Build()
	}

	if err := zw.Close(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "finalize template archive").Build()
	}
	return nil
}

// extractZip unpacks zipPath into destDir, rejecting entries that would
// escape the destination.
func extractZip(zipPath, destDir string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "open template archive").
			WithContext("path", zipPath).Build()
	}
	defer zr.Close()

	for _, file := range zr.File {
		if err := extractEntry(file, destDir); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(file *zip.File, destDir string) error {
	target := filepath.Join(destDir, filepath.FromSlash(file.Name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return ferrors.TemplateError("archive entry escapes target directory").
			WithContext("entry", file.Name).Build()
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create template directory").Build()
	}

	in, err := file.Open()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "read archive entry").
			WithContext("entry", file.Name).Build()
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode().Perm()|0o200)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create template file").
			WithContext("path", target).Build()
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "extract template file").
			WithContext("path", target).Build()
	}
	return nil
}

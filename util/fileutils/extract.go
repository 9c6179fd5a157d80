package fileutils

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mrnavastar/blockman/util"
)

// ExtractNative unpacks a native jar into destination. Entries starting with
// one of excludes are skipped, as are files that already exist.
func ExtractNative(archive string, destination string, excludes []string) error {
	util.Debug("Extracting natives of %s", archive)

	if err := os.MkdirAll(destination, 0755); err != nil {
		return util.Wrap(util.ErrFilesystem, destination, err)
	}

	reader, err := zip.OpenReader(archive)
	if err != nil {
		return util.Wrap(util.ErrExtractFailed, archive, err)
	}
	defer reader.Close()

files:
	for _, file := range reader.File {
		name, ok := enclosedName(file.Name)
		if !ok {
			continue
		}

		for _, exclude := range excludes {
			if strings.HasPrefix(name, exclude) {
				continue files
			}
		}

		outPath := filepath.Join(destination, filepath.FromSlash(name))
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(outPath, 0755); err != nil {
				return util.Wrap(util.ErrExtractFailed, file.Name, err)
			}
			continue
		}

		if info, err := os.Stat(outPath); err == nil && info.Mode().IsRegular() {
			continue
		}

		util.Debug("Extract file to: %s", outPath)
		if err := extractFile(file, outPath); err != nil {
			return util.Wrap(util.ErrExtractFailed, file.Name, err)
		}
	}

	util.Debug("Finished extracting")
	return nil
}

func extractFile(file *zip.File, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}

	in, err := file.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// enclosedName rejects entries that would escape the destination directory.
func enclosedName(name string) (string, bool) {
	if name == "" || strings.Contains(name, "\\") || path.IsAbs(name) {
		return "", false
	}
	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	if strings.HasSuffix(name, "/") {
		clean += "/"
	}
	return clean, true
}

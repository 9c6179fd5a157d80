package fileutils

import (
	"os"

	"github.com/mrnavastar/blockman/util"
)

// SymlinkDir points link at target unless something already exists at link.
// On Windows this needs developer mode or an elevated process.
func SymlinkDir(target string, link string) error {
	if _, err := os.Lstat(link); err == nil {
		return nil
	}

	util.Debug("Creating symlink %s -> %s", link, target)
	if err := os.Symlink(target, link); err != nil {
		return util.Wrap(util.ErrFilesystem, link, err)
	}
	return nil
}

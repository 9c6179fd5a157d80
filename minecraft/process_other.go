//go:build !unix && !windows

package minecraft

import (
	"syscall"

	"github.com/mrnavastar/blockman/util"
)

var errLaunchFailed = util.ErrSpawnFailed

func detachedAttr() *syscall.SysProcAttr {
	return nil
}

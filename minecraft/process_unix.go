//go:build unix

package minecraft

import (
	"syscall"

	"github.com/mrnavastar/blockman/util"
)

var errLaunchFailed = util.ErrForkFailed

// detachedAttr puts the game in its own session so it survives the launcher.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

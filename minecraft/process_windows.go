//go:build windows

package minecraft

import (
	"syscall"

	"github.com/mrnavastar/blockman/util"
	"golang.org/x/sys/windows"
)

var errLaunchFailed = util.ErrSpawnFailed

func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: windows.DETACHED_PROCESS | windows.CREATE_NEW_PROCESS_GROUP,
		HideWindow:    true,
	}
}

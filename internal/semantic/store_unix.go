//go:build !windows

package semantic

import (
	"syscall"

	"worksentry/internal/wserr"
)

func (vf *VectorFile) mmap(size int64) error {
	data, err := syscall.Mmap(int(vf.file.Fd()), 0, int(size), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return wserr.IndexUnavailable("semantic.mmap", err)
	}
	vf.mapped = data
	return nil
}

func (vf *VectorFile) munmap() error {
	if vf.mapped != nil {
		err := syscall.Munmap(vf.mapped)
		vf.mapped = nil
		if err != nil {
			return wserr.IndexUnavailable("semantic.munmap", err)
		}
	}
	return nil
}

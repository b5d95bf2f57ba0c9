//go:build windows

package semantic

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"worksentry/internal/wserr"
)

func (vf *VectorFile) mmap(size int64) error {
	if size <= 0 {
		return wserr.IndexUnavailable("semantic.mmap", fmt.Errorf("invalid mmap size: %d", size))
	}

	hi := uint32(uint64(size) >> 32)
	lo := uint32(uint64(size) & 0xffffffff)

	h, err := syscall.CreateFileMapping(
		syscall.Handle(vf.file.Fd()),
		nil,
		syscall.PAGE_READWRITE,
		hi,
		lo,
		nil,
	)
	if err != nil {
		return wserr.IndexUnavailable("semantic.mmap", fmt.Errorf("CreateFileMapping: %w", err))
	}
	vf.mapHandle = uintptr(h)

	addr, err := syscall.MapViewOfFile(h, syscall.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		syscall.CloseHandle(h)
		vf.mapHandle = 0
		return wserr.IndexUnavailable("semantic.mmap", fmt.Errorf("MapViewOfFile: %w", err))
	}

	vf.viewHandle = addr
	vf.mapped = unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size))
	return nil
}

func (vf *VectorFile) munmap() error {
	var errs []error
	if vf.viewHandle != 0 {
		if err := syscall.UnmapViewOfFile(vf.viewHandle); err != nil {
			errs = append(errs, err)
		}
		vf.viewHandle = 0
	}
	if vf.mapHandle != 0 {
		if err := syscall.CloseHandle(syscall.Handle(vf.mapHandle)); err != nil {
			errs = append(errs, err)
		}
		vf.mapHandle = 0
	}
	vf.mapped = nil
	if len(errs) > 0 {
		return wserr.IndexUnavailable("semantic.munmap", errors.Join(errs...))
	}
	return nil
}

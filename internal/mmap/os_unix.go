//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

var madvice = map[AccessPattern]int{
	AccessDefault:    unix.MADV_NORMAL,
	AccessSequential: unix.MADV_SEQUENTIAL,
	AccessRandom:     unix.MADV_RANDOM,
	AccessWillNeed:   unix.MADV_WILLNEED,
}

func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	buf, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return buf, unix.Munmap, nil
}

func osAdvise(buf []byte, p AccessPattern) error {
	advice, ok := madvice[p]
	if !ok {
		advice = unix.MADV_NORMAL
	}
	// EINVAL only means the kernel rejected the hint for this range.
	if err := unix.Madvise(buf, advice); err != nil && !errors.Is(err, unix.EINVAL) {
		return err
	}
	return nil
}

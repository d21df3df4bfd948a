//go:build unix

package capability

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
)

// unixPlatform implements Platform using dev+inode as the volume file
// id, matching POSIX hard-link semantics.
type unixPlatform struct{}

// New returns the Platform implementation for the running OS.
func New() Platform {
	return unixPlatform{}
}

func (unixPlatform) Stat(path string) (Identity, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Identity{}, err
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return Identity{}, fmt.Errorf("capability: cannot get syscall.Stat_t for %s", path)
	}
	return Identity{
		VolumeFileID: foldVolumeFileID(uint64(stat.Dev), stat.Ino), //nolint:unconvert // platform-dependent type
		LinkCount:    uint32(stat.Nlink),                           //nolint:unconvert // platform-dependent type
		Size:         info.Size(),
		ReadOnly:     info.Mode()&0o200 == 0,
		ModTime:      info.ModTime(),
		Device:       uint64(stat.Dev), //nolint:unconvert // platform-dependent type
	}, nil
}

// foldVolumeFileID combines device and inode into the single 64-bit
// volume file id the comparator compares for hard-link identity. The
// low 16 bits of the device are shifted into the top 16 bits and XORed
// with the inode, so equal inode numbers below 2^48 get distinct ids on
// devices whose low 16 bits differ; devices that agree in their low 16
// bits are not told apart.
func foldVolumeFileID(dev, ino uint64) uint64 {
	return dev<<48 ^ ino
}

const tmpSuffix = ".finddupe.tmp"

// orphanedTmpMaxAge is the minimum age for a stray temp file to be
// considered orphaned rather than part of an in-flight operation.
const orphanedTmpMaxAge = 1 * time.Minute

// CreateHardlink creates newPath atomically by linking to a temp file
// then renaming, so a crash mid-operation never leaves newPath
// half-written.
func (unixPlatform) CreateHardlink(newPath, existingPath string) error {
	tmp := newPath + tmpSuffix

	err := os.Link(existingPath, tmp)
	if errors.Is(err, os.ErrExist) {
		if cleanupErr := tryCleanupOrphanedTmp(tmp, orphanedTmpMaxAge); cleanupErr != nil {
			return fmt.Errorf("tmp link exists and cannot be cleaned: %w", cleanupErr)
		}
		err = os.Link(existingPath, tmp)
	}
	if err != nil {
		return err
	}

	if err := os.Rename(tmp, newPath); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// tryCleanupOrphanedTmp removes a stray temp link left by a previous
// aborted run, but only when it is safe: old enough to not be part of
// an active operation, and backed by another link so removing it
// cannot lose data.
func tryCleanupOrphanedTmp(path string, maxAge time.Duration) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("lstat: %w", err)
	}

	if info.ModTime().After(time.Now().Add(-maxAge)) {
		return fmt.Errorf("tmp file too recent (mtime %v)", info.ModTime())
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fmt.Errorf("cannot get syscall.Stat_t")
	}
	if stat.Nlink <= 1 {
		return fmt.Errorf("nlink=%d, may be only copy of data", stat.Nlink)
	}

	return os.Remove(path)
}

func (unixPlatform) SetReadOnly(path string, readOnly bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode()
	if readOnly {
		mode &^= 0o222
	} else {
		mode |= 0o200
	}
	return os.Chmod(path, mode)
}

func (unixPlatform) Remove(path string) error {
	return os.Remove(path)
}

func (unixPlatform) SetModTime(path string, t time.Time) error {
	return os.Chtimes(path, t, t)
}

// SupportsHardlinks probes hard-link support by creating and removing
// a throwaway link next to path. Network filesystems and some
// pseudo-filesystems reject the link with EXDEV or EPERM.
func (unixPlatform) SupportsHardlinks(path string) (bool, error) {
	dir := path
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		dir = parentDir(path)
	}

	probe := dir + "/.finddupe-probe" + tmpSuffix
	target := dir + "/.finddupe-probe-target" + tmpSuffix

	f, err := os.Create(target)
	if err != nil {
		return false, err
	}
	_ = f.Close()
	defer os.Remove(target)

	err = os.Link(target, probe)
	if err != nil {
		if errors.Is(err, syscall.EXDEV) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.ENOSYS) {
			return false, nil
		}
		return false, err
	}
	_ = os.Remove(probe)
	return true, nil
}

func parentDir(path string) string {
	i := len(path) - 1
	for i >= 0 && path[i] != '/' {
		i--
	}
	if i <= 0 {
		return "."
	}
	return path[:i]
}

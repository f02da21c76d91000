//go:build linux || darwin || freebsd

package monitoring

import "golang.org/x/sys/unix"

// diskUsage reports the size and free space of the filesystem holding path.
func diskUsage(path string) DiskUsage {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return DiskUsage{}
	}
	return DiskUsage{
		TotalBytes: stat.Blocks * uint64(stat.Bsize),
		FreeBytes:  stat.Bavail * uint64(stat.Bsize),
	}
}

//go:build !linux && !darwin && !freebsd

package monitoring

func diskUsage(path string) DiskUsage {
	_ = path
	return DiskUsage{}
}

package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

type OnDiskHostsfilePersister struct {
	path string
}

// Read returns "" for a hosts file that does not exist yet.
func (p *OnDiskHostsfilePersister) Read(ctx context.Context) (string, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write updates the file in place, following symlinks, so its inode, owner
// and mode stay the same. Hosts files are often symlinks or bind mounts of
// a single file, where a rename over the path would fail or break the link.
func (p *OnDiskHostsfilePersister) Write(ctx context.Context, contents string) error {
	target, err := p.target()
	if err != nil {
		return err
	}

	mode := fs.FileMode(0644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(target, []byte(contents), mode)
}

// target resolves symlinks in path. A file that does not exist yet is
// written at path itself.
func (p *OnDiskHostsfilePersister) target() (string, error) {
	resolved, err := filepath.EvalSymlinks(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return p.path, nil
	}
	return resolved, err
}

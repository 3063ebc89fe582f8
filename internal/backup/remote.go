package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Remote errors.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrUploadFailed   = errors.New("upload failed")
	ErrDownloadFailed = errors.New("download failed")
)

// Remote is an off-device location holding copies of backup files. Object
// names are slash-separated and relative to the remote's root.
type Remote interface {
	Upload(ctx context.Context, localPath, objectName string) error
	Download(ctx context.Context, objectName, localPath string) error
	List(ctx context.Context) ([]string, error)
}

// LocalRemote keeps backup copies in a directory, such as a mounted network
// share or a synced folder.
type LocalRemote struct {
	basePath string
}

// NewLocalRemote creates the directory if needed.
func NewLocalRemote(basePath string) (*LocalRemote, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("creating remote directory: %w", err)
	}
	return &LocalRemote{basePath: basePath}, nil
}

func (l *LocalRemote) Upload(ctx context.Context, localPath, objectName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest := l.fullPath(objectName)
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := copyFile(localPath, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return nil
}

func (l *LocalRemote) Download(ctx context.Context, objectName, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src := l.fullPath(objectName)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, objectName)
	}
	if err := copyFile(src, localPath); err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return nil
}

// List returns the object names under the directory, sorted.
func (l *LocalRemote) List(ctx context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(l.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", l.basePath, err)
	}
	sort.Strings(names)
	return names, nil
}

func (l *LocalRemote) fullPath(objectName string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(objectName))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Push uploads the backup file at localPath under its base name.
func Push(ctx context.Context, r Remote, localPath string) (string, error) {
	name := filepath.Base(localPath)
	if err := r.Upload(ctx, localPath, name); err != nil {
		return "", err
	}
	return name, nil
}

// Pull downloads objectName into dir and returns the local path. An empty
// objectName selects the latest backup, which is the last name in sort
// order given the timestamped names FileName produces.
func Pull(ctx context.Context, r Remote, objectName, dir string) (string, error) {
	if objectName == "" {
		names, err := r.List(ctx)
		if err != nil {
			return "", err
		}
		latest, latestBase := "", ""
		for _, n := range names {
			base := path.Base(n)
			if strings.HasPrefix(base, "keepsake-") && base > latestBase {
				latest, latestBase = n, base
			}
		}
		if latest == "" {
			return "", fmt.Errorf("%w: no backups on remote", ErrObjectNotFound)
		}
		objectName = latest
	}

	localPath := filepath.Join(dir, filepath.Base(filepath.FromSlash(objectName)))
	if err := r.Download(ctx, objectName, localPath); err != nil {
		return "", err
	}
	return localPath, nil
}

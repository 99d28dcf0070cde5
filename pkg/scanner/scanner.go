// Package scanner walks a filesystem root and yields preview descriptors.
package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
)

// ErrRootMissing is returned when the scanned root does not exist.
var ErrRootMissing = errors.New("scanner: root missing")

// Scan recursively enumerates regular files under root. Symlinks to files
// are followed; symlinked directories are not recursed into, to avoid
// cycles. relative_path entries always use forward slashes, regardless of
// host OS separator conventions.
func Scan(rootID int64, root string) ([]v1.PreviewDescriptor, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", root, ErrRootMissing)
		}
		return nil, fmt.Errorf("scanner: stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, ErrRootMissing)
	}

	var descriptors []v1.PreviewDescriptor
	err = walk(root, root, rootID, &descriptors)
	if err != nil {
		return nil, fmt.Errorf("scanner: walk %s: %w", root, err)
	}
	return descriptors, nil
}

func walk(root, dir string, rootID int64, out *[]v1.PreviewDescriptor) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	for _, entry := range entries {
		absPath := filepath.Join(dir, entry.Name())

		if entry.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(absPath)
			if err != nil {
				continue
			}
			if target.IsDir() {
				// Do not recurse into symlinked directories: avoids cycles.
				continue
			}
			if err := appendFile(root, absPath, target, rootID, out); err != nil {
				return err
			}
			continue
		}

		if entry.IsDir() {
			if err := walk(root, absPath, rootID, out); err != nil {
				return err
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if err := appendFile(root, absPath, info, rootID, out); err != nil {
			return err
		}
	}
	return nil
}

func appendFile(root, absPath string, info os.FileInfo, rootID int64, out *[]v1.PreviewDescriptor) error {
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	captureTs := int64(0)
	if mt := info.ModTime(); !mt.IsZero() {
		captureTs = mt.Unix()
	}

	*out = append(*out, v1.PreviewDescriptor{
		RootID:       rootID,
		AbsolutePath: absPath,
		RelativePath: filepath.ToSlash(rel),
		FileSize:     info.Size(),
		CaptureTs:    captureTs,
	})
	return nil
}

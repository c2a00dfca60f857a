// Package exportfs computes where exported files live and writes them.
//
// Every run writes below <base>/exports:
//
//	<base>/exports/<folder>/<identity><ext>   one file per object
//	<base>/exports/<folder>/data/<name>       artifacts of the objects in folder
//	<base>/exports/mapped_variables<ext>      shared variables, written once
package exportfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	ExportsDir          = "exports"
	DataDir             = "data"
	SharedVariablesName = "mapped_variables"
)

// Layout maps exported objects to file paths. Computing a path has no side
// effects; directories are created by WriteFile.
type Layout struct {
	BasePath  string
	Extension string
}

func NewLayout(basePath, extension string) Layout {
	return Layout{BasePath: basePath, Extension: extension}
}

func (l Layout) Root() string {
	return filepath.Join(l.BasePath, ExportsDir)
}

func (l Layout) ResourceDir(folder string) string {
	return filepath.Join(l.Root(), contained(folder))
}

func (l Layout) ResourcePath(folder, identity string) string {
	return filepath.Join(l.ResourceDir(folder), contained(identity)+l.Extension)
}

func (l Layout) DataPath(folder, name string) string {
	return filepath.Join(l.ResourceDir(folder), DataDir, contained(name))
}

func (l Layout) SharedVariablesPath() string {
	return filepath.Join(l.Root(), SharedVariablesName+l.Extension)
}

// FolderName returns the folder used for resourceType, without prefix.
func FolderName(resourceType, prefix string) string {
	return strings.TrimPrefix(resourceType, prefix)
}

// contained cleans a relative name so it cannot leave its parent directory.
func contained(name string) string {
	cleaned := filepath.Clean(string(filepath.Separator) + name)
	return strings.TrimPrefix(cleaned, string(filepath.Separator))
}

// WriteFile writes data to path, creating parent directories. The file is
// written to a temporary sibling first and renamed into place so readers
// never observe a partial file.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

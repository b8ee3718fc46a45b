// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package status

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrNoBackup is returned when restoring a file that was never backed up.
var ErrNoBackup = errors.Base("no backup")

// 📊 FileStatus represents what happened to a file during a run
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusModified             // Edits were written
	StatusPlanned              // Edits were computed but not written (dry run)
	StatusUnchanged            // Formatter produced nothing to do
	StatusSkipped              // File was not processed
	StatusFailed               // Processing or writing failed
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusModified:
		return "modified"
	case StatusPlanned:
		return "planned"
	case StatusUnchanged:
		return "unchanged"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 📄 FileInfo contains metadata about a file
type FileInfo struct {
	Path     string      // Path relative to the working tree
	Status   FileStatus  // Current status
	Size     int64       // File size in bytes
	Mode     os.FileMode // File permissions
	Checksum string      // Content hash after the last write
	Edits    int         // Edits written to the file
	Error    error       // Any error associated with this file
}

// 💾 FileManager handles all file system operations
type FileManager interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFileAtomic(ctx context.Context, path string, content []byte) error

	// Splice replaces length bytes at offset with content.
	Splice(ctx context.Context, path string, offset, length int, content []byte) error

	// Backup operations
	BackupFile(ctx context.Context, path string) error
	RestoreFile(ctx context.Context, path string) error
	ListBackups(ctx context.Context) ([]string, error)
}

// 📈 StatusReporter tracks file status
type StatusReporter interface {
	TrackFile(ctx context.Context, path string, info FileInfo)
	GetFileInfo(ctx context.Context, path string) (FileInfo, error)
	ListFiles(ctx context.Context) ([]FileInfo, error)
}

var (
	_ FileManager    = (*Manager)(nil)
	_ StatusReporter = (*Manager)(nil)
)

// 🔧 Manager implements both FileManager and StatusReporter
type Manager struct {
	baseDir   string          // Working tree all paths are relative to
	backupDir string          // Where snapshots go; empty disables backups
	logger    *zerolog.Logger // Logger for status updates
	formatter FileFormatter   // Formatter for status messages

	mu    sync.RWMutex
	files map[string]FileInfo
}

// 🏭 New creates a new status manager
func New(baseDir, backupDir string, logger *zerolog.Logger) *Manager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	m := &Manager{
		baseDir:   filepath.Clean(baseDir),
		logger:    logger,
		formatter: NewDefaultFileFormatter(),
		files:     make(map[string]FileInfo),
	}
	if backupDir != "" {
		m.backupDir = filepath.Clean(backupDir)
	}
	return m
}

// BaseDir returns the working tree root.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// 🔒 getAbsPath returns the absolute path for a given relative path
func (m *Manager) getAbsPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.baseDir, path)
}

// 🔍 calculateChecksum generates a SHA-256 hash of the content
func calculateChecksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// FileManager interface implementation

func (m *Manager) ReadFile(ctx context.Context, path string) ([]byte, error) {
	content, err := os.ReadFile(m.getAbsPath(path))
	if err != nil {
		return nil, errors.Errorf("reading file: %w", err)
	}
	return content, nil
}

func (m *Manager) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	absPath := m.getAbsPath(path)

	mode := os.FileMode(0644)
	if info, err := os.Stat(absPath); err == nil {
		mode = info.Mode().Perm()
	}

	return writeAtomic(absPath, content, mode)
}

// ✂️ Splice replaces [offset, offset+length) of the file with content. The
// file grows or shrinks as needed and keeps its permissions.
func (m *Manager) Splice(ctx context.Context, path string, offset, length int, content []byte) error {
	absPath := m.getAbsPath(path)

	info, err := os.Stat(absPath)
	if err != nil {
		return errors.Errorf("checking file: %w", err)
	}

	buf, err := os.ReadFile(absPath)
	if err != nil {
		return errors.Errorf("reading file: %w", err)
	}

	if offset < 0 || length < 0 || offset+length > len(buf) {
		return errors.Errorf("splice [%d, %d) outside %s (%d bytes)", offset, offset+length, path, len(buf))
	}

	out := make([]byte, 0, len(buf)-length+len(content))
	out = append(out, buf[:offset]...)
	out = append(out, content...)
	out = append(out, buf[offset+length:]...)

	if err := writeAtomic(absPath, out, info.Mode().Perm()); err != nil {
		return err
	}

	m.mu.Lock()
	fi := m.files[path]
	fi.Path = path
	fi.Status = StatusModified
	fi.Size = int64(len(out))
	fi.Mode = info.Mode().Perm()
	fi.Checksum = calculateChecksum(out)
	fi.Edits++
	m.files[path] = fi
	m.mu.Unlock()

	return nil
}

// 💾 BackupFile snapshots a file into the backup directory, mirroring its
// relative path. An existing snapshot is kept so the oldest version wins.
func (m *Manager) BackupFile(ctx context.Context, path string) error {
	if m.backupDir == "" {
		return nil
	}

	absPath := m.getAbsPath(path)
	backupPath := filepath.Join(m.backupDir, path)

	// Only backup if file exists
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Errorf("checking file existence: %w", err)
	}

	if _, err := os.Stat(backupPath); err == nil {
		return nil
	}

	if err := copyFile(absPath, backupPath); err != nil {
		return errors.Errorf("creating backup: %w", err)
	}

	m.logger.Debug().Str("path", path).Str("backup", backupPath).Msg("file backed up")
	return nil
}

// ♻️ RestoreFile copies the snapshot of path back and removes the snapshot.
func (m *Manager) RestoreFile(ctx context.Context, path string) error {
	if m.backupDir == "" {
		return errors.Errorf("%w: no backup directory configured", ErrNoBackup)
	}

	absPath := m.getAbsPath(path)
	backupPath := filepath.Join(m.backupDir, path)

	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return errors.Errorf("%w: %s", ErrNoBackup, path)
	} else if err != nil {
		return errors.Errorf("checking backup existence: %w", err)
	}

	if err := copyFile(backupPath, absPath); err != nil {
		return errors.Errorf("restoring from backup: %w", err)
	}

	if err := os.Remove(backupPath); err != nil {
		return errors.Errorf("removing backup: %w", err)
	}

	m.logger.Debug().Str("path", path).Msg("file restored")
	return nil
}

// ListBackups returns the relative paths of every snapshot, sorted.
func (m *Manager) ListBackups(ctx context.Context) ([]string, error) {
	if m.backupDir == "" {
		return nil, nil
	}

	var paths []string
	err := filepath.WalkDir(m.backupDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == m.backupDir {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(m.backupDir, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("listing backups: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// StatusReporter interface implementation

func (m *Manager) TrackFile(ctx context.Context, path string, info FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info.Path = path
	m.files[path] = info

	msg := m.formatter.FormatFileOperation(info)
	if info.Error != nil {
		m.logger.Debug().Err(info.Error).Str("path", path).Msg(msg)
		return
	}
	m.logger.Debug().Str("path", path).Str("status", info.Status.String()).Msg(msg)
}

func (m *Manager) GetFileInfo(ctx context.Context, path string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[path]
	if !ok {
		return FileInfo{}, errors.Errorf("file not tracked: %s", path)
	}
	return info, nil
}

func (m *Manager) ListFiles(ctx context.Context) ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]FileInfo, 0, len(m.files))
	for _, info := range m.files {
		files = append(files, info)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Helper functions

func writeAtomic(absPath string, content []byte, mode os.FileMode) error {
	tempPath := absPath + ".blamefmt.tmp"

	if err := os.WriteFile(tempPath, content, mode); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}

	// Rename temp file to target (atomic operation)
	if err := os.Rename(tempPath, absPath); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// copyFile copies src to dst, creating parent directories and keeping the mode
func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return errors.Errorf("checking source file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	destination, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return errors.Errorf("copying file: %w", err)
	}

	return nil
}

package sable

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// FSErrorKind enumerates the filesystem failure kinds guests can
// distinguish.
type FSErrorKind string

const (
	FSNotFound         FSErrorKind = "not_found"
	FSPermissionDenied FSErrorKind = "permission_denied"
	FSIsADirectory     FSErrorKind = "is_a_directory"
	FSNotADirectory    FSErrorKind = "not_a_directory"
	FSInvalidPath      FSErrorKind = "invalid_path"
	FSIO               FSErrorKind = "io"
)

// FSError is the deterministic error shape for filesystem operations.
type FSError struct {
	Op   string
	Path string
	Kind FSErrorKind
	Err  error
}

func (e *FSError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fs.%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("fs.%s %s: %s", e.Op, e.Path, e.Kind)
}

func (e *FSError) Unwrap() error { return e.Err }

// FileInfo is the guest-visible stat result.
type FileInfo struct {
	Name    string
	Path    string
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
	IsDir   bool
}

// FileSystem exposes confined filesystem access to guest code. Every path
// is resolved inside the configured root; escapes fail with the
// PermissionDenied kind. All operations are suspension points and accept a
// cancellation signal through ctx. Reads are all-or-nothing on
// cancellation; WriteFile is checked before any byte is written and runs to
// completion once started (best-effort cancellation, documented here
// rather than assumed atomic). Concurrent WriteFile calls on one instance
// are serialized.
type FileSystem interface {
	Module
	ReadFile(ctx context.Context, path string) ([]byte, error)
	ReadTextFile(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	Stat(ctx context.Context, path string) (FileInfo, error)
	ReadDir(ctx context.Context, path string) ([]FileInfo, error)
	Glob(ctx context.Context, pattern string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
	Hash(ctx context.Context, path, algorithm string) (string, error)
}

// FSConfig confines the filesystem capability.
type FSConfig struct {
	// Root is the directory guest paths resolve inside. Must exist.
	Root string

	// ReadOnly makes WriteFile fail with UnsupportedOperationError.
	ReadOnly bool
}

// NewFSCapability constructs the filesystem capability. Hard-unavailable:
// construction fails when the root does not exist or is not a directory.
func NewFSCapability(cfg FSConfig) (FileSystem, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("fs root must be non-empty")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("fs root %q: %w", cfg.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("fs root %q: %w", cfg.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fs root %q is not a directory", cfg.Root)
	}
	// Containment checks compare against the real root, so a root that is
	// itself behind a symlink (e.g. /tmp on some platforms) still confines.
	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("fs root %q: %w", cfg.Root, err)
	}
	return &fsModule{root: root, readOnly: cfg.ReadOnly}, nil
}

// MustNewFSCapability constructs the filesystem capability or panics.
func MustNewFSCapability(cfg FSConfig) FileSystem {
	fsys, err := NewFSCapability(cfg)
	if err != nil {
		panic(err)
	}
	return fsys
}

type fsModule struct {
	root     string
	readOnly bool
	writeMu  sync.Mutex
}

func (f *fsModule) ModuleName() string { return "filesystem" }

func (f *fsModule) ReadFile(ctx context.Context, path string) ([]byte, error) {
	resolved, err := f.resolve("read_file", path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if info, statErr := os.Stat(resolved); statErr == nil && info.IsDir() {
		return nil, &FSError{Op: "read_file", Path: path, Kind: FSIsADirectory}
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, mapFSError("read_file", path, err)
	}
	return data, nil
}

func (f *fsModule) ReadTextFile(ctx context.Context, path string) (string, error) {
	data, err := f.ReadFile(ctx, path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", &FSError{Op: "read_text_file", Path: path, Kind: FSIO, Err: errors.New("not valid UTF-8")}
	}
	return string(data), nil
}

func (f *fsModule) WriteFile(ctx context.Context, path string, data []byte) error {
	if f.readOnly {
		return unsupportedOp("fs", "write_file", "filesystem capability is read-only")
	}
	resolved, err := f.resolve("write_file", path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if info, statErr := os.Stat(resolved); statErr == nil && info.IsDir() {
		return &FSError{Op: "write_file", Path: path, Kind: FSIsADirectory}
	}
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return mapFSError("write_file", path, err)
	}
	return nil
}

func (f *fsModule) Stat(ctx context.Context, path string) (FileInfo, error) {
	resolved, err := f.resolve("stat", path)
	if err != nil {
		return FileInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return FileInfo{}, mapFSError("stat", path, err)
	}
	return fileInfoFrom(path, info), nil
}

func (f *fsModule) ReadDir(ctx context.Context, path string) ([]FileInfo, error) {
	resolved, err := f.resolve("read_dir", path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if info, statErr := os.Stat(resolved); statErr == nil && !info.IsDir() {
		return nil, &FSError{Op: "read_dir", Path: path, Kind: FSNotADirectory}
	}
	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, mapFSError("read_dir", path, err)
	}
	infos := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// Entry vanished between listing and stat.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, mapFSError("read_dir", path, err)
		}
		infos = append(infos, fileInfoFrom(filepath.ToSlash(filepath.Join(path, entry.Name())), info))
	}
	return infos, nil
}

func (f *fsModule) Glob(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" || patternEscapesRoot(pattern) {
		return nil, &FSError{Op: "glob", Path: pattern, Kind: FSInvalidPath}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(f.root, filepath.FromSlash(pattern)))
	if err != nil {
		return nil, &FSError{Op: "glob", Path: pattern, Kind: FSInvalidPath, Err: err}
	}
	relative := make([]string, 0, len(matches))
	for _, match := range matches {
		rel, err := filepath.Rel(f.root, match)
		if err != nil {
			continue
		}
		relative = append(relative, filepath.ToSlash(rel))
	}
	return relative, nil
}

// patternEscapesRoot reports whether a glob pattern has a ".." path
// segment after cleaning. Consecutive dots inside a name ("a..b*") are
// legitimate and pass.
func patternEscapesRoot(pattern string) bool {
	normalized := strings.ReplaceAll(filepath.Clean(filepath.FromSlash(pattern)), "\\", "/")
	return slices.Contains(strings.Split(normalized, "/"), "..")
}

func (f *fsModule) Exists(ctx context.Context, path string) (bool, error) {
	_, err := f.Stat(ctx, path)
	if err == nil {
		return true, nil
	}
	var fsErr *FSError
	if errors.As(err, &fsErr) && fsErr.Kind == FSNotFound {
		return false, nil
	}
	return false, err
}

func (f *fsModule) Hash(ctx context.Context, path, algorithm string) (string, error) {
	var digest hash.Hash
	switch strings.ToLower(algorithm) {
	case "md5":
		digest = md5.New()
	case "sha1":
		digest = sha1.New()
	case "sha256":
		digest = sha256.New()
	default:
		return "", unsupportedOp("fs", "hash", fmt.Sprintf("algorithm %q", algorithm))
	}

	resolved, err := f.resolve("hash", path)
	if err != nil {
		return "", err
	}
	if info, statErr := os.Stat(resolved); statErr == nil && info.IsDir() {
		return "", &FSError{Op: "hash", Path: path, Kind: FSIsADirectory}
	}
	file, err := os.Open(resolved)
	if err != nil {
		return "", mapFSError("hash", path, err)
	}
	defer file.Close()

	if _, err := io.Copy(digest, &ctxReader{ctx: ctx, r: file}); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", mapFSError("hash", path, err)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// resolve confines path to the capability root. Both relative paths and
// absolute paths already under the root are accepted; anything else is an
// escape. Lexical cleaning alone is not enough: a symlink under the root
// can point outside it, so the deepest existing ancestor is resolved
// through its symlinks before the containment check.
func (f *fsModule) resolve(op, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", &FSError{Op: op, Path: path, Kind: FSInvalidPath}
	}
	candidate := filepath.FromSlash(path)
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(f.root, candidate)
	}
	resolved, err := resolveExistingAncestors(filepath.Clean(candidate))
	if err != nil {
		return "", mapFSError(op, path, err)
	}
	if !withinRoot(f.root, resolved) {
		return "", &FSError{Op: op, Path: path, Kind: FSPermissionDenied, Err: errors.New("path escapes capability root")}
	}
	return resolved, nil
}

func withinRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// resolveExistingAncestors evaluates symlinks in the longest existing
// prefix of path and re-joins the missing suffix, so not-yet-created files
// resolve against their real parent directory.
func resolveExistingAncestors(path string) (string, error) {
	existing := path
	suffix := make([]string, 0, 4)
	for {
		_, statErr := os.Lstat(existing)
		if statErr == nil {
			break
		}
		if !errors.Is(statErr, fs.ErrNotExist) {
			return "", statErr
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return "", statErr
		}
		suffix = append(suffix, filepath.Base(existing))
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", err
	}
	for i := len(suffix) - 1; i >= 0; i-- {
		resolved = filepath.Join(resolved, suffix[i])
	}
	return resolved, nil
}

func mapFSError(op, path string, err error) error {
	kind := FSIO
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = FSNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = FSPermissionDenied
	}
	return &FSError{Op: op, Path: path, Kind: kind, Err: err}
}

func fileInfoFrom(path string, info fs.FileInfo) FileInfo {
	return FileInfo{
		Name:    info.Name(),
		Path:    filepath.ToSlash(path),
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}
}

// ctxReader checks for cancellation between chunks so long hashes abandon
// the file promptly.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

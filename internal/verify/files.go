package verify

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/ppiankov/dyadt/internal/model"
)

// isAbsent reports errors that prove the entry does not exist.
// ENOTDIR means a parent component is a file, so the path cannot exist either.
func isAbsent(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func (e *Evaluator) checkFileExists(ev model.FileExists) model.Finding {
	_, err := os.Stat(ev.Path)
	switch {
	case err == nil:
		return model.Confirmed("file exists: %s", ev.Path)
	case isAbsent(err):
		return model.Refuted("file not found: %s", ev.Path)
	case errors.Is(err, fs.ErrPermission):
		return model.Unverifiable("cannot access %s: %v", ev.Path, err)
	default:
		return model.Errored("stat %s: %v", ev.Path, err)
	}
}

func (e *Evaluator) checkDirExists(ev model.DirExists) model.Finding {
	info, err := os.Stat(ev.Path)
	switch {
	case err == nil && info.IsDir():
		return model.Confirmed("directory exists: %s", ev.Path)
	case err == nil:
		return model.Refuted("%s exists but is not a directory", ev.Path)
	case isAbsent(err):
		return model.Refuted("directory not found: %s", ev.Path)
	case errors.Is(err, fs.ErrPermission):
		return model.Unverifiable("cannot access %s: %v", ev.Path, err)
	default:
		return model.Errored("stat %s: %v", ev.Path, err)
	}
}

// openRegular opens path for reading. When the file cannot be used it returns a
// finding explaining why, and a nil file.
func openRegular(path string) (*os.File, fs.FileInfo, *model.Finding) {
	f, err := os.Open(path)
	if err != nil {
		var finding model.Finding
		switch {
		case isAbsent(err):
			finding = model.Refuted("file not found: %s", path)
		case errors.Is(err, fs.ErrPermission):
			finding = model.Unverifiable("cannot read %s: %v", path, err)
		default:
			finding = model.Errored("open %s: %v", path, err)
		}
		return nil, nil, &finding
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		finding := model.Errored("stat %s: %v", path, err)
		return nil, nil, &finding
	}
	if info.IsDir() {
		_ = f.Close()
		finding := model.Refuted("%s is a directory, not a file", path)
		return nil, nil, &finding
	}
	return f, info, nil
}

func (e *Evaluator) checkFileHash(ev model.FileHash) model.Finding {
	f, info, finding := openRegular(ev.Path)
	if finding != nil {
		return *finding
	}
	defer func() { _ = f.Close() }()

	actual, ok := e.digests.Lookup(ev.Path, info)
	if !ok {
		var err error
		actual, err = Digest(f)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return model.Unverifiable("cannot read %s: %v", ev.Path, err)
			}
			return model.Errored("compute digest of %s: %v", ev.Path, err)
		}
		e.digests.Remember(ev.Path, info, actual)
	}

	expected := strings.ToLower(ev.SHA256)
	if actual != expected {
		return model.Refuted("hash mismatch: expected %s, got %s", expected, actual)
	}
	return model.Confirmed("hash matches: %s", actual)
}

func (e *Evaluator) checkFileContains(ev model.FileContains) model.Finding {
	f, info, finding := openRegular(ev.Path)
	if finding != nil {
		return *finding
	}
	defer func() { _ = f.Close() }()

	if info.Size() > e.maxReadBytes {
		return model.Unverifiable("%s is %d bytes, over the %d byte read limit", ev.Path, info.Size(), e.maxReadBytes)
	}

	// Files can grow between stat and read; read one byte past the limit to notice
	content, err := io.ReadAll(io.LimitReader(f, e.maxReadBytes+1))
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return model.Unverifiable("cannot read %s: %v", ev.Path, err)
		}
		return model.Errored("read %s: %v", ev.Path, err)
	}
	if int64(len(content)) > e.maxReadBytes {
		return model.Unverifiable("%s is over the %d byte read limit", ev.Path, e.maxReadBytes)
	}
	if !utf8.Valid(content) {
		return model.Unverifiable("%s is not valid UTF-8 text", ev.Path)
	}

	if !bytes.Contains(content, []byte(ev.Substring)) {
		return model.Refuted("substring not found in %s", ev.Path)
	}
	return model.Confirmed("substring found in %s", ev.Path)
}

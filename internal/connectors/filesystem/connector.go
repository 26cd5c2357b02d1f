// Package filesystem reads documents from a local directory tree.
// It is the pipeline's only document source: files are enumerated
// recursively, typed by extension, and unreadable or binary content is
// skipped with a logged notice rather than failing the build.
package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat-cli/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.DocumentSource = (*Connector)(nil)

// sniffLen is how many leading bytes are inspected for binary content.
const sniffLen = 512

// mimeByExtension maps known file extensions to MIME types.
// PDF and image OCR extraction is delegated to external tooling; the
// connector only ships the types the normalisers can handle as text.
var mimeByExtension = map[string]string{
	".txt":  "text/plain",
	".text": "text/plain",
	".log":  "text/plain",
	".md":   "text/markdown",
	".mdx":  "text/markdown",
	".csv":  "text/plain",
	".json": "text/plain",
	".yaml": "text/plain",
	".yml":  "text/plain",
	".toml": "text/plain",
}

// Connector reads raw documents from the filesystem.
type Connector struct{}

// New creates a filesystem connector.
func New() *Connector {
	return &Connector{}
}

// Read walks dir and returns a RawDocument per readable text file.
// Hidden files and directories are ignored. Files that cannot be read,
// have an unknown extension or look binary are skipped with a log line.
func (c *Connector) Read(ctx context.Context, dir string) ([]domain.RawDocument, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat docs dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	var docs []domain.RawDocument
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") && path != dir {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		mimeType, ok := mimeByExtension[strings.ToLower(filepath.Ext(name))]
		if !ok {
			logger.Debug("Skipping %s: unsupported extension", path)
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable file %s: %v", path, err)
			return nil
		}
		if isBinary(content) {
			logger.Warn("Skipping binary content in %s", path)
			return nil
		}

		docs = append(docs, domain.RawDocument{
			URI:      path,
			MIMEType: mimeType,
			Content:  content,
			Metadata: map[string]string{
				domain.MetaFileName: name,
				domain.MetaFilePath: path,
			},
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	logger.Info("Read %d documents from %s", len(docs), dir)
	return docs, nil
}

// isBinary reports whether content looks like binary data.
// A NUL byte in the leading window is a reliable indicator for the
// text formats this connector accepts.
func isBinary(content []byte) bool {
	n := len(content)
	if n > sniffLen {
		n = sniffLen
	}
	return bytes.IndexByte(content[:n], 0) >= 0
}

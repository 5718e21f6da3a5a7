// Package attachment keeps uploaded purchase documents on local disk.
package attachment

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Kind selects which document slot of a purchase a file belongs to.
type Kind string

const (
	KindInvoice Kind = "invoice"
	KindReceipt Kind = "receipt"
)

func (k Kind) Valid() bool {
	return k == KindInvoice || k == KindReceipt
}

// MaxSize is the largest accepted upload in bytes.
const MaxSize = 10 << 20

var allowedExt = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true, ".webp": true,
}

type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// Saved describes a stored file. Path is relative to the store root.
type Saved struct {
	Path         string
	OriginalName string
}

// Save copies r under <root>/purchases/<purchaseID>/<kind>-<uuid><ext>.
func (s *Store) Save(purchaseID uint, kind Kind, originalName string, r io.Reader) (Saved, error) {
	if !kind.Valid() {
		return Saved{}, fmt.Errorf("unknown attachment kind %q", kind)
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExt[ext] {
		return Saved{}, fmt.Errorf("file type %q is not accepted", ext)
	}

	rel := filepath.Join("purchases", fmt.Sprint(purchaseID), fmt.Sprintf("%s-%s%s", kind, uuid.NewString(), ext))
	full := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return Saved{}, fmt.Errorf("create attachment dir: %w", err)
	}

	file, err := os.Create(full)
	if err != nil {
		return Saved{}, fmt.Errorf("create attachment: %w", err)
	}
	defer file.Close()

	n, err := io.Copy(file, io.LimitReader(r, MaxSize+1))
	if err == nil && n > MaxSize {
		err = fmt.Errorf("file exceeds %d bytes", MaxSize)
	}
	if err != nil {
		file.Close()
		os.Remove(full)
		return Saved{}, err
	}
	return Saved{Path: filepath.ToSlash(rel), OriginalName: filepath.Base(originalName)}, nil
}

// Open returns the stored file for reading.
func (s *Store) Open(rel string) (*os.File, error) {
	return os.Open(s.resolve(rel))
}

// Remove deletes a stored file; a missing file is not an error.
func (s *Store) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	if err := os.Remove(s.resolve(rel)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) resolve(rel string) string {
	clean := filepath.Clean("/" + filepath.FromSlash(rel))
	return filepath.Join(s.root, clean)
}

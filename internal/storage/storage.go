package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"ideahub/mentorship-api/internal/metrics"
)

// File is an in-memory upload.
type File struct {
	Name        string // original filename
	ContentType string
	Data        []byte
}

// UploadOptions control where and how an object is stored.
type UploadOptions struct {
	Folder string
	Name   string // object name inside Folder; UploadMany generates one per file
	Tags   map[string]string
}

// Object is a stored file.
type Object struct {
	URL       string // durable URL to the object
	StorageID string // object key, folder/name
}

// DeleteOutcome reports what Delete did.
type DeleteOutcome string

const (
	Deleted       DeleteOutcome = "deleted"
	AlreadyAbsent DeleteOutcome = "already-absent"
)

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// Upload stores file and returns its durable URL and storage identifier.
	// Failures are reported as *UploadError.
	Upload(ctx context.Context, file File, opts UploadOptions) (Object, error)

	// Delete removes the object. An object that is already gone is not an error.
	Delete(ctx context.Context, storageID string) (DeleteOutcome, error)
}

var ErrObjectNotFound = errors.New("object not found in storage")

// UploadError wraps a failed upload with the name of the file.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %q: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// UploadMany uploads all files concurrently. Each file gets its own object name
// built by ObjectName; opts.Name is ignored. If any upload fails the batch fails
// and no objects are returned. Objects already stored are left in place.
func UploadMany(ctx context.Context, store FileStorage, files []File, opts UploadOptions) ([]Object, error) {
	objects := make([]Object, len(files))
	now := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		fileOpts := opts
		fileOpts.Name = ObjectName(now, i, file.Name)

		g.Go(func() error {
			obj, err := store.Upload(gctx, file, fileOpts)
			if err != nil {
				metrics.FileUploadsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
				var uploadErr *UploadError
				if !errors.As(err, &uploadErr) {
					err = &UploadError{Name: file.Name, Err: err}
				}
				return err
			}
			metrics.FileUploadsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
			objects[i] = obj
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Int("files", len(files)).Str("folder", opts.Folder).Msg("batch upload failed")
		return nil, err
	}
	return objects, nil
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectName builds a collision-resistant object name from the upload time, the
// file's position in its batch and its original name:
// <unixMillis>_<index>_<base>_<8 hex chars>[.ext]
func ObjectName(now time.Time, index int, originalName string) string {
	base := filepath.Base(strings.ReplaceAll(originalName, `\`, "/"))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	stem = strings.Trim(unsafeNameChars.ReplaceAllString(stem, "-"), "-.")
	if stem == "" {
		stem = "file"
	}
	ext = unsafeNameChars.ReplaceAllString(ext, "")
	if ext == "." {
		ext = ""
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d_%d_%s_%s%s", now.UnixMilli(), index, stem, suffix, strings.ToLower(ext))
}

// ObjectKey joins folder and name into a storage identifier.
func ObjectKey(folder, name string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

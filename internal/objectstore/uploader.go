package objectstore

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/orcaarchive/orca/internal/apperr"
	"github.com/orcaarchive/orca/internal/dbx"
	"github.com/orcaarchive/orca/internal/guid"
	"github.com/orcaarchive/orca/internal/logger"
	"github.com/orcaarchive/orca/internal/megadoc"
	"github.com/orcaarchive/orca/internal/retry"
)

// putter is the one s3.Client method Upload needs; narrowing to an
// interface lets tests exercise Upload's retry/status logic against a fake
// instead of a live S3-compatible endpoint.
type putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader pushes a built Megadoc file to the object store and marks it
// SUCCESS once the upload completes.
type Uploader struct {
	s3       putter
	space    string
	megadocs *megadoc.Store
	retries  int
}

func NewUploader(client *Client, megadocs *megadoc.Store, retries int) *Uploader {
	return &Uploader{s3: client.S3, space: client.Space, megadocs: megadocs, retries: retries}
}

// Upload streams dataPath/m.Path up as m.Path within the configured space,
// publicly readable with an attachment disposition so a browser downloads
// rather than renders it. m must already be in SENDING status.
func (u *Uploader) Upload(ctx context.Context, m *megadoc.Megadoc, dataPath string) error {
	if m.Status != guid.StatusSending {
		return fmt.Errorf("%w: megadoc %s is %s, not SENDING", apperr.ErrBadInput, m.GUID, m.Status)
	}

	fullPath := filepath.Join(dataPath, m.Path)
	if _, err := os.Stat(fullPath); err != nil {
		return fmt.Errorf("%w: megadoc file %s", apperr.ErrNotFound, fullPath)
	}

	contentType := mime.TypeByExtension(m.Filetype)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	err := retry.Do(ctx, retry.Options{
		Retries:  u.retries,
		Classify: isTransientS3Error,
	}, func() error {
		f, err := os.Open(fullPath)
		if err != nil {
			return fmt.Errorf("opening megadoc file: %w", err)
		}
		defer f.Close()

		_, err = u.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:             aws.String(u.space),
			Key:                aws.String(m.Path),
			Body:               f,
			ACL:                types.ObjectCannedACLPublicRead,
			ContentType:        aws.String(contentType),
			ContentDisposition: aws.String("attachment"),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: uploading megadoc %s: %w", apperr.ErrUploadFailed, m.GUID, err)
	}

	logger.WithFields(map[string]any{"megadoc": m.GUID, "url": m.URL}).Info("uploaded megadoc")

	if err := u.megadocs.SetStatus(ctx, m.GUID, guid.StatusSuccess); err != nil {
		return fmt.Errorf("marking megadoc uploaded: %w", err)
	}
	return nil
}

// isTransientS3Error classifies network/throttling errors as retryable,
// reusing dbx's own substring classifier since S3 client errors surface the
// same kind of transient wording ("connection", "timeout") as sqlite busy
// errors do.
func isTransientS3Error(err error) bool {
	return dbx.IsTransient(err)
}

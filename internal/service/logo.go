package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"

	"github.com/fakturlab/faktur/internal/domain/invoice"
	ierr "github.com/fakturlab/faktur/internal/errors"
)

// MaxLogoSourceSize caps the logo file at the source-byte level, before
// base64 encoding inflates it.
const MaxLogoSourceSize = 2 * 1024 * 1024

// NewLogoUploadToken starts a logo upload and returns its generation
// token. Each new upload supersedes the ones before it: a completion
// carrying a stale token is discarded, never applied.
func (s *Session) NewLogoUploadToken() uint64 {
	s.logoGen++
	return s.logoGen
}

// ApplyLogo completes the upload identified by token with the file's
// bytes. The file must be a PNG or JPEG of at most 2MB; the encoded
// data URI is stored in the sender details. On rejection the document
// model is left unchanged.
func (s *Session) ApplyLogo(ctx context.Context, token uint64, data []byte) error {
	if token != s.logoGen {
		s.log.Debugf("discarding stale logo upload (token %d, current %d)", token, s.logoGen)
		return nil
	}

	if len(data) > MaxLogoSourceSize {
		return ierr.NewError("logo file too large").
			WithHint("Logo must be at most 2MB").
			WithReportableDetails(map[string]any{
				"size":     len(data),
				"max_size": MaxLogoSourceSize,
			}).
			Mark(ierr.ErrResourceLimit)
	}

	kind, err := filetype.Match(data)
	if err != nil || (kind != matchers.TypePng && kind != matchers.TypeJpeg) {
		return ierr.NewError("unsupported logo format").
			WithHint("Logo must be a PNG or JPEG image").
			Mark(ierr.ErrValidation)
	}

	uri := fmt.Sprintf("data:%s;base64,%s", kind.MIME.Value, base64.StdEncoding.EncodeToString(data))
	s.draft.SenderLogo = uri
	return s.model.UpdateSender(ctx, invoice.SenderPatch{Logo: &uri})
}

// SetLogo uploads synchronously: it takes a fresh token and applies it
// at once.
func (s *Session) SetLogo(ctx context.Context, data []byte) error {
	return s.ApplyLogo(ctx, s.NewLogoUploadToken(), data)
}

// RemoveLogo clears the logo to the empty string and invalidates any
// in-flight upload.
func (s *Session) RemoveLogo(ctx context.Context) error {
	s.logoGen++

	empty := ""
	s.draft.SenderLogo = ""
	return s.model.UpdateSender(ctx, invoice.SenderPatch{Logo: &empty})
}

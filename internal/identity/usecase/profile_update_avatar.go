package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
	"github.com/shandysiswandi/passwordless/internal/pkg/storage"
)

//nolint:gochecknoglobals // lookup table
var avatarContentTypeExt = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type ProfileUpdateAvatarInput struct {
	File io.Reader
	// ContentType is the type declared by the client; the sniffed type wins.
	ContentType string
}

// ProfileUpdateAvatar stores a new avatar image and points the profile at it.
func (s *Usecase) ProfileUpdateAvatar(ctx context.Context, in ProfileUpdateAvatarInput) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "ProfileUpdateAvatar")
	defer span.End()

	auth, err := s.authenticate(ctx)
	if err != nil {
		return nil, authError(err, "Failed to update avatar")
	}

	if in.File == nil {
		return nil, goerror.NewInvalidInput(nil, "avatar", "avatar file is required")
	}

	limit := s.avatarMaxBytes()
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(in.File, limit+1))
	if err != nil {
		slog.WarnContext(ctx, "failed to read avatar upload", "user_id", auth.User.ID, "error", err)
		return nil, goerror.NewInvalidFormat("Invalid avatar upload")
	}
	if n == 0 {
		return nil, goerror.NewInvalidInput(nil, "avatar", "avatar file is required")
	}
	if n > limit {
		return nil, goerror.NewInvalidInput(nil, "avatar", fmt.Sprintf("avatar must not exceed %d bytes", limit))
	}

	contentType := http.DetectContentType(buf.Bytes())
	ext, ok := avatarContentTypeExt[contentType]
	if !ok {
		slog.WarnContext(ctx, "rejected avatar content type", "declared", in.ContentType, "sniffed", contentType)
		return nil, goerror.NewInvalidInput(nil, "avatar", "avatar must be a png, jpeg or webp image")
	}

	key := fmt.Sprintf("avatars/%s/%s.%s", auth.User.ID, s.uuid.Generate(), ext)
	if _, err := s.storage.PutObject(ctx, key, bytes.NewReader(buf.Bytes()), storage.PutOptions{
		Size:        n,
		ContentType: contentType,
		Metadata:    map[string]string{"user_id": auth.User.ID},
	}); err != nil {
		slog.ErrorContext(ctx, "failed to upload avatar", "user_id", auth.User.ID, "error", err)
		return nil, goerror.NewServer(err, "Failed to update avatar")
	}

	user, err := s.repoDB.UpdateUserAvatar(ctx, auth.User.ID, s.storage.URL(key), s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update user avatar", "user_id", auth.User.ID, "error", err)
		if delErr := s.storage.DeleteObject(context.WithoutCancel(ctx), key); delErr != nil {
			slog.WarnContext(ctx, "failed to remove orphaned avatar", "key", key, "error", delErr)
		}
		return nil, goerror.NewServer(err, "Failed to update avatar")
	}

	return auth.output(user), nil
}

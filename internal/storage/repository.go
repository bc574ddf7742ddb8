package storage

import (
	"context"
	"errors"

	"vidshare/internal/models"
)

var (
	// ErrConflict signals a uniqueness or referential-integrity violation
	// reported by the underlying store.
	ErrConflict = errors.New("conflict")
	// ErrNotFound signals that the addressed resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotFoundOrForbidden signals that a mutation matched no row, either
	// because the video does not exist or because the requester does not own
	// it. The two cases are deliberately indistinguishable so that non-owners
	// cannot probe for existence.
	ErrNotFoundOrForbidden = errors.New("not found or forbidden")
	// ErrInvalidCredentials signals a password mismatch during login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Page bounds a listing. Limit is always positive by the time it reaches a
// repository; Offset is zero-based.
type Page struct {
	Offset int
	Limit  int
}

// CreateUserParams carries a registration. Password arrives in clear text and
// is hashed by the repository before it is stored.
type CreateUserParams struct {
	Username string
	Pseudo   *string
	Email    string
	Password string
}

// UserUpdate applies any non-nil field. Password is re-hashed when supplied.
type UserUpdate struct {
	Username *string
	Pseudo   *string
	Email    *string
	Password *string
}

// CreateVideoParams carries a new video row. Duration is best-effort and may
// be zero when probing failed.
type CreateVideoParams struct {
	Name     string
	Source   string
	Duration int
	OwnerID  int64
}

// VideoFilter narrows a video listing. All set fields are conjunctive.
// OwnerID and OwnerPseudo are mutually exclusive: a numeric owner filter
// matches by exact id, a textual one by pseudo substring.
type VideoFilter struct {
	Name        *string
	OwnerID     *int64
	OwnerPseudo *string
	MaxDuration *int
}

// VideoUpdate applies any non-nil field. OwnerID reassigns the video and must
// reference an existing user.
type VideoUpdate struct {
	Name    *string
	OwnerID *int64
}

// Repository exposes the datastore operations required by the API handlers.
// Listing operations return the items for the requested page together with
// the total number of rows matching the same filter.
type Repository interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)
	AuthenticateUser(ctx context.Context, login, password string) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, bool, error)
	ListUsers(ctx context.Context, pseudo *string, page Page) ([]models.User, int, error)
	UpdateUser(ctx context.Context, id int64, update UserUpdate) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateVideo(ctx context.Context, params CreateVideoParams) (models.Video, error)
	GetVideo(ctx context.Context, id int64) (models.Video, bool, error)
	ListVideos(ctx context.Context, filter VideoFilter, page Page) ([]models.Video, int, error)
	UpdateVideo(ctx context.Context, videoID, ownerID int64, update VideoUpdate) (models.Video, error)
	AttachEncoding(ctx context.Context, videoID int64, format, locator string) (models.Video, error)
	DeleteVideo(ctx context.Context, videoID, ownerID int64) error

	CreateComment(ctx context.Context, videoID, authorID int64, body string) (models.Comment, error)
	ListComments(ctx context.Context, videoID int64, page Page) ([]models.Comment, int, error)
}

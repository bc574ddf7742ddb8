package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"vidshare/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// formatColumns maps each validated resolution label to its column. The
// label never reaches the SQL text directly; handlers validate it against
// models.FormatLabels and this map supplies the identifier.
var formatColumns = map[string]string{
	"1080": "format_1080",
	"720":  "format_720",
	"480":  "format_480",
	"360":  "format_360",
	"240":  "format_240",
	"144":  "format_144",
}

// PostgresConfig tunes the connection pool.
type PostgresConfig struct {
	DSN             string
	MaxConnections  int32
	MinConnections  int32
	MaxConnLifetime time.Duration
	ApplicationName string
}

// PostgresRepository is the pgx-backed Repository used in production.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository opens a pooled Postgres connection. Call Migrate
// before serving requests.
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections > 0 {
		poolCfg.MinConns = cfg.MinConnections
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.ApplicationName != "" {
		if poolCfg.ConnConfig.RuntimeParams == nil {
			poolCfg.ConnConfig.RuntimeParams = make(map[string]string)
		}
		poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

// Close releases the pool, bounded by the context deadline.
func (r *PostgresRepository) Close(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		r.pool.Close()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// translateError maps constraint violations onto the repository's sentinel
// errors so handlers never see driver types.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation:
			return ErrConflict
		}
	}
	return err
}

type userRow struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Pseudo       *string   `db:"pseudo"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (row userRow) user() models.User {
	return models.User{
		ID:        row.ID,
		Username:  row.Username,
		Pseudo:    row.Pseudo,
		Email:     row.Email,
		CreatedAt: row.CreatedAt,
	}
}

const userColumns = "id, username, pseudo, email, password_hash, created_at"

func (r *PostgresRepository) CreateUser(ctx context.Context, params CreateUserParams) (models.User, error) {
	hashed, err := hashPassword(params.Password)
	if err != nil {
		return models.User{}, err
	}
	var row userRow
	err = pgxscan.Get(ctx, r.pool, &row, `
INSERT INTO users (username, pseudo, email, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING `+userColumns, params.Username, params.Pseudo, params.Email, hashed)
	if err != nil {
		return models.User{}, translateError(err)
	}
	return row.user(), nil
}

func (r *PostgresRepository) AuthenticateUser(ctx context.Context, login, password string) (models.User, error) {
	var row userRow
	err := pgxscan.Get(ctx, r.pool, &row, `
SELECT `+userColumns+` FROM users WHERE username = $1`, login)
	if pgxscan.NotFound(err) {
		return models.User{}, ErrNotFound
	} else if err != nil {
		return models.User{}, err
	}
	if err := verifyPassword(row.PasswordHash, password); err != nil {
		return models.User{}, err
	}
	return row.user(), nil
}

func (r *PostgresRepository) GetUser(ctx context.Context, id int64) (models.User, bool, error) {
	var row userRow
	err := pgxscan.Get(ctx, r.pool, &row, `
SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if pgxscan.NotFound(err) {
		return models.User{}, false, nil
	} else if err != nil {
		return models.User{}, false, err
	}
	return row.user(), true, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context, pseudo *string, page Page) ([]models.User, int, error) {
	args := &argList{}
	where := &conditionSet{}
	if pseudo != nil {
		where.Add("pseudo LIKE " + args.Bind(containsPattern(*pseudo)))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM users" + where.Clause()
	if err := pgxscan.Get(ctx, r.pool, &total, countQuery, args.Values()...); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + userColumns + " FROM users" + where.Clause() +
		" ORDER BY id DESC LIMIT " + args.Bind(page.Limit) + " OFFSET " + args.Bind(page.Offset)
	var rows []userRow
	if err := pgxscan.Select(ctx, r.pool, &rows, query, args.Values()...); err != nil {
		return nil, 0, err
	}

	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		user := row.user()
		user.Email = ""
		users = append(users, user)
	}
	return users, total, nil
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, id int64, update UserUpdate) (models.User, error) {
	args := &argList{}
	set := &assignmentSet{}
	if update.Username != nil {
		set.Add("username = " + args.Bind(*update.Username))
	}
	if update.Pseudo != nil {
		set.Add("pseudo = " + args.Bind(*update.Pseudo))
	}
	if update.Email != nil {
		set.Add("email = " + args.Bind(*update.Email))
	}
	if update.Password != nil {
		hashed, err := hashPassword(*update.Password)
		if err != nil {
			return models.User{}, err
		}
		set.Add("password_hash = " + args.Bind(hashed))
	}
	if set.Empty() {
		return models.User{}, fmt.Errorf("no fields to update")
	}

	query := "UPDATE users SET " + set.Clause() + " WHERE id = " + args.Bind(id)
	tag, err := r.pool.Exec(ctx, query, args.Values()...)
	if err != nil {
		return models.User{}, translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.User{}, ErrNotFound
	}

	user, ok, err := r.GetUser(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (r *PostgresRepository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type videoRow struct {
	ID             int64      `db:"id"`
	Name           string     `db:"name"`
	Source         string     `db:"source"`
	CreatedAt      time.Time  `db:"created_at"`
	Views          int        `db:"views"`
	Enabled        bool       `db:"enabled"`
	Duration       int        `db:"duration"`
	OwnerID        int64      `db:"owner_id"`
	OwnerUsername  string     `db:"owner_username"`
	OwnerPseudo    *string    `db:"owner_pseudo"`
	OwnerCreatedAt time.Time  `db:"owner_created_at"`
	Format1080     *string    `db:"format_1080"`
	Format720      *string    `db:"format_720"`
	Format480      *string    `db:"format_480"`
	Format360      *string    `db:"format_360"`
	Format240      *string    `db:"format_240"`
	Format144      *string    `db:"format_144"`
}

func (row videoRow) video() models.Video {
	return models.Video{
		ID:        row.ID,
		Name:      row.Name,
		Source:    row.Source,
		CreatedAt: row.CreatedAt,
		Views:     row.Views,
		Enabled:   row.Enabled,
		Duration:  row.Duration,
		User: models.User{
			ID:        row.OwnerID,
			Username:  row.OwnerUsername,
			Pseudo:    row.OwnerPseudo,
			CreatedAt: row.OwnerCreatedAt,
		},
		Formats: models.VideoFormats{
			F1080: row.Format1080,
			F720:  row.Format720,
			F480:  row.Format480,
			F360:  row.Format360,
			F240:  row.Format240,
			F144:  row.Format144,
		},
	}
}

const videoSelect = `
SELECT v.id, v.name, v.source, v.created_at, v.views, v.enabled, v.duration,
       v.user_id AS owner_id, u.username AS owner_username, u.pseudo AS owner_pseudo,
       u.created_at AS owner_created_at,
       v.format_1080, v.format_720, v.format_480, v.format_360, v.format_240, v.format_144
FROM videos v
LEFT JOIN users u ON u.id = v.user_id`

const videoCount = `
SELECT COUNT(*)
FROM videos v
LEFT JOIN users u ON u.id = v.user_id`

func (r *PostgresRepository) CreateVideo(ctx context.Context, params CreateVideoParams) (models.Video, error) {
	var id int64
	err := pgxscan.Get(ctx, r.pool, &id, `
INSERT INTO videos (name, source, duration, user_id)
VALUES ($1, $2, $3, $4)
RETURNING id`, params.Name, params.Source, params.Duration, params.OwnerID)
	if err != nil {
		return models.Video{}, translateError(err)
	}
	video, ok, err := r.GetVideo(ctx, id)
	if err != nil {
		return models.Video{}, err
	}
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return video, nil
}

func (r *PostgresRepository) GetVideo(ctx context.Context, id int64) (models.Video, bool, error) {
	var row videoRow
	err := pgxscan.Get(ctx, r.pool, &row, videoSelect+" WHERE v.id = $1", id)
	if pgxscan.NotFound(err) {
		return models.Video{}, false, nil
	} else if err != nil {
		return models.Video{}, false, err
	}
	return row.video(), true, nil
}

func (r *PostgresRepository) ListVideos(ctx context.Context, filter VideoFilter, page Page) ([]models.Video, int, error) {
	args := &argList{}
	where := &conditionSet{}
	if filter.Name != nil {
		where.Add("v.name LIKE " + args.Bind(containsPattern(*filter.Name)))
	}
	if filter.OwnerID != nil {
		where.Add("v.user_id = " + args.Bind(*filter.OwnerID))
	}
	if filter.OwnerPseudo != nil {
		where.Add("u.pseudo LIKE " + args.Bind(containsPattern(*filter.OwnerPseudo)))
	}
	if filter.MaxDuration != nil {
		where.Add("v.duration <= " + args.Bind(*filter.MaxDuration))
	}

	var total int
	if err := pgxscan.Get(ctx, r.pool, &total, videoCount+where.Clause(), args.Values()...); err != nil {
		return nil, 0, err
	}

	query := videoSelect + where.Clause() +
		" ORDER BY v.id DESC LIMIT " + args.Bind(page.Limit) + " OFFSET " + args.Bind(page.Offset)
	var rows []videoRow
	if err := pgxscan.Select(ctx, r.pool, &rows, query, args.Values()...); err != nil {
		return nil, 0, err
	}

	videos := make([]models.Video, 0, len(rows))
	for _, row := range rows {
		videos = append(videos, row.video())
	}
	return videos, total, nil
}

func (r *PostgresRepository) UpdateVideo(ctx context.Context, videoID, ownerID int64, update VideoUpdate) (models.Video, error) {
	args := &argList{}
	set := &assignmentSet{}
	if update.Name != nil {
		set.Add("name = " + args.Bind(*update.Name))
	}
	if update.OwnerID != nil {
		set.Add("user_id = " + args.Bind(*update.OwnerID))
	}
	if set.Empty() {
		return models.Video{}, fmt.Errorf("no fields to update")
	}

	// The row must match both the id and the current owner; a miss on either
	// is indistinguishable on purpose.
	query := "UPDATE videos SET " + set.Clause() +
		" WHERE id = " + args.Bind(videoID) + " AND user_id = " + args.Bind(ownerID)
	tag, err := r.pool.Exec(ctx, query, args.Values()...)
	if err != nil {
		return models.Video{}, translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.Video{}, ErrNotFoundOrForbidden
	}

	video, ok, err := r.GetVideo(ctx, videoID)
	if err != nil {
		return models.Video{}, err
	}
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return video, nil
}

func (r *PostgresRepository) AttachEncoding(ctx context.Context, videoID int64, format, locator string) (models.Video, error) {
	column, ok := formatColumns[format]
	if !ok {
		return models.Video{}, fmt.Errorf("unknown format %q", format)
	}
	tag, err := r.pool.Exec(ctx, "UPDATE videos SET "+column+" = $1 WHERE id = $2", locator, videoID)
	if err != nil {
		return models.Video{}, err
	}
	if tag.RowsAffected() == 0 {
		return models.Video{}, ErrNotFound
	}
	video, found, err := r.GetVideo(ctx, videoID)
	if err != nil {
		return models.Video{}, err
	}
	if !found {
		return models.Video{}, ErrNotFound
	}
	return video, nil
}

func (r *PostgresRepository) DeleteVideo(ctx context.Context, videoID, ownerID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1 AND user_id = $2`, videoID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFoundOrForbidden
	}
	return nil
}

type commentRow struct {
	ID             int64     `db:"id"`
	Body           string    `db:"body"`
	VideoID        int64     `db:"video_id"`
	CreatedAt      time.Time `db:"created_at"`
	AuthorID       int64     `db:"author_id"`
	AuthorUsername string    `db:"author_username"`
	AuthorPseudo   *string   `db:"author_pseudo"`
	AuthorJoined   time.Time `db:"author_joined"`
}

func (row commentRow) comment() models.Comment {
	return models.Comment{
		ID:        row.ID,
		Body:      row.Body,
		VideoID:   row.VideoID,
		CreatedAt: row.CreatedAt,
		User: models.User{
			ID:        row.AuthorID,
			Username:  row.AuthorUsername,
			Pseudo:    row.AuthorPseudo,
			CreatedAt: row.AuthorJoined,
		},
	}
}

const commentSelect = `
SELECT c.id, c.body, c.video_id, c.created_at,
       c.user_id AS author_id, u.username AS author_username, u.pseudo AS author_pseudo,
       u.created_at AS author_joined
FROM comments c
LEFT JOIN users u ON u.id = c.user_id`

func (r *PostgresRepository) CreateComment(ctx context.Context, videoID, authorID int64, body string) (models.Comment, error) {
	var id int64
	err := pgxscan.Get(ctx, r.pool, &id, `
INSERT INTO comments (body, user_id, video_id)
VALUES ($1, $2, $3)
RETURNING id`, body, authorID, videoID)
	if err != nil {
		return models.Comment{}, translateError(err)
	}
	var row commentRow
	if err := pgxscan.Get(ctx, r.pool, &row, commentSelect+" WHERE c.id = $1", id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, err
	}
	return row.comment(), nil
}

func (r *PostgresRepository) ListComments(ctx context.Context, videoID int64, page Page) ([]models.Comment, int, error) {
	args := &argList{}
	where := &conditionSet{}
	where.Add("c.video_id = " + args.Bind(videoID))

	var total int
	countQuery := "SELECT COUNT(*) FROM comments c" + where.Clause()
	if err := pgxscan.Get(ctx, r.pool, &total, countQuery, args.Values()...); err != nil {
		return nil, 0, err
	}

	query := commentSelect + where.Clause() +
		" ORDER BY c.id DESC LIMIT " + args.Bind(page.Limit) + " OFFSET " + args.Bind(page.Offset)
	var rows []commentRow
	if err := pgxscan.Select(ctx, r.pool, &rows, query, args.Values()...); err != nil {
		return nil, 0, err
	}

	comments := make([]models.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, row.comment())
	}
	return comments, total, nil
}

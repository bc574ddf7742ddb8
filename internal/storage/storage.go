package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"vidshare/internal/models"
)

// userRecord is the persisted shape of a user, including the secret the
// public model never carries.
type userRecord struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Pseudo       *string   `json:"pseudo"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

type videoRecord struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	Source    string             `json:"source"`
	Duration  int                `json:"duration"`
	Views     int                `json:"views"`
	Enabled   bool               `json:"enabled"`
	OwnerID   int64              `json:"ownerId"`
	Formats   map[string]*string `json:"formats"`
	CreatedAt time.Time          `json:"createdAt"`
}

type commentRecord struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	VideoID   int64     `json:"videoId"`
	AuthorID  int64     `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}

type dataset struct {
	NextID   int64                   `json:"nextId"`
	Users    map[int64]userRecord    `json:"users"`
	Videos   map[int64]videoRecord   `json:"videos"`
	Comments map[int64]commentRecord `json:"comments"`
}

func newDataset() dataset {
	return dataset{
		NextID:   1,
		Users:    make(map[int64]userRecord),
		Videos:   make(map[int64]videoRecord),
		Comments: make(map[int64]commentRecord),
	}
}

// Storage is the JSON-file-backed Repository used for local development and
// tests. Every mutation clones the dataset, persists the clone atomically and
// only then commits it, so a failed write leaves the previous state intact.
type Storage struct {
	mu       sync.RWMutex
	filePath string
	data     dataset
	// persistOverride allows tests to intercept persist operations.
	persistOverride func(dataset) error
}

var _ Repository = (*Storage)(nil)

// NewStorage opens (or initializes) the JSON datastore at path.
func NewStorage(path string) (*Storage, error) {
	store := &Storage{filePath: path}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Storage) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	file, err := os.Open(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		s.data = newDataset()
		return nil
	} else if err != nil {
		return fmt.Errorf("open store file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&s.data); err != nil {
		if errors.Is(err, io.EOF) {
			s.data = newDataset()
			return nil
		}
		return fmt.Errorf("decode store file: %w", err)
	}
	if s.data.Users == nil {
		s.data.Users = make(map[int64]userRecord)
	}
	if s.data.Videos == nil {
		s.data.Videos = make(map[int64]videoRecord)
	}
	if s.data.Comments == nil {
		s.data.Comments = make(map[int64]commentRecord)
	}
	if s.data.NextID < 1 {
		s.data.NextID = 1
	}
	return nil
}

func (s *Storage) persistDataset(data dataset) error {
	if s.persistOverride != nil {
		if err := s.persistOverride(data); err != nil {
			return err
		}
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "store-*.json")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpPath := tmpFile.Name()
	success := false
	defer func() {
		if !success {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	encoder := json.NewEncoder(tmpFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("flush store file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	success = true
	return nil
}

func cloneDataset(src dataset) dataset {
	clone := newDataset()
	clone.NextID = src.NextID
	for id, user := range src.Users {
		cloned := user
		if user.Pseudo != nil {
			pseudo := *user.Pseudo
			cloned.Pseudo = &pseudo
		}
		clone.Users[id] = cloned
	}
	for id, video := range src.Videos {
		cloned := video
		cloned.Formats = make(map[string]*string, len(video.Formats))
		for label, locator := range video.Formats {
			if locator == nil {
				cloned.Formats[label] = nil
				continue
			}
			value := *locator
			cloned.Formats[label] = &value
		}
		clone.Videos[id] = cloned
	}
	for id, comment := range src.Comments {
		clone.Comments[id] = comment
	}
	return clone
}

func emptyFormats() map[string]*string {
	formats := make(map[string]*string, len(models.FormatLabels))
	for _, label := range models.FormatLabels {
		formats[label] = nil
	}
	return formats
}

func (s *Storage) nextIDLocked(data *dataset) int64 {
	id := data.NextID
	data.NextID++
	return id
}

// Ping reports whether the backing file is still reachable.
func (s *Storage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := os.Stat(filepath.Dir(s.filePath))
	return err
}

func publicUser(rec userRecord) models.User {
	user := models.User{
		ID:        rec.ID,
		Username:  rec.Username,
		Email:     rec.Email,
		CreatedAt: rec.CreatedAt,
	}
	if rec.Pseudo != nil {
		pseudo := *rec.Pseudo
		user.Pseudo = &pseudo
	}
	return user
}

func (s *Storage) CreateUser(ctx context.Context, params CreateUserParams) (models.User, error) {
	hashed, err := hashPassword(params.Password)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data.Users {
		if existing.Username == params.Username || strings.EqualFold(existing.Email, params.Email) {
			return models.User{}, ErrConflict
		}
	}

	updated := cloneDataset(s.data)
	rec := userRecord{
		ID:           s.nextIDLocked(&updated),
		Username:     params.Username,
		Pseudo:       params.Pseudo,
		Email:        params.Email,
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
	}
	updated.Users[rec.ID] = rec

	if err := s.persistDataset(updated); err != nil {
		return models.User{}, err
	}
	s.data = updated
	return publicUser(rec), nil
}

func (s *Storage) AuthenticateUser(ctx context.Context, login, password string) (models.User, error) {
	s.mu.RLock()
	var match *userRecord
	for _, rec := range s.data.Users {
		if rec.Username == login {
			found := rec
			match = &found
			break
		}
	}
	s.mu.RUnlock()

	if match == nil {
		return models.User{}, ErrNotFound
	}
	if err := verifyPassword(match.PasswordHash, password); err != nil {
		return models.User{}, err
	}
	return publicUser(*match), nil
}

func (s *Storage) GetUser(ctx context.Context, id int64) (models.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data.Users[id]
	if !ok {
		return models.User{}, false, nil
	}
	return publicUser(rec), true, nil
}

func (s *Storage) ListUsers(ctx context.Context, pseudo *string, page Page) ([]models.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]userRecord, 0, len(s.data.Users))
	for _, rec := range s.data.Users {
		if pseudo != nil {
			if rec.Pseudo == nil || !strings.Contains(*rec.Pseudo, *pseudo) {
				continue
			}
		}
		matched = append(matched, rec)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	users := make([]models.User, 0, page.Limit)
	for _, rec := range paginate(matched, page) {
		user := publicUser(rec)
		user.Email = ""
		users = append(users, user)
	}
	return users, total, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id int64, update UserUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data.Users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}

	if update.Username != nil {
		for otherID, other := range s.data.Users {
			if otherID != id && other.Username == *update.Username {
				return models.User{}, ErrConflict
			}
		}
		rec.Username = *update.Username
	}
	if update.Email != nil {
		for otherID, other := range s.data.Users {
			if otherID != id && strings.EqualFold(other.Email, *update.Email) {
				return models.User{}, ErrConflict
			}
		}
		rec.Email = *update.Email
	}
	if update.Pseudo != nil {
		pseudo := *update.Pseudo
		rec.Pseudo = &pseudo
	}
	if update.Password != nil {
		hashed, err := hashPassword(*update.Password)
		if err != nil {
			return models.User{}, err
		}
		rec.PasswordHash = hashed
	}

	updated := cloneDataset(s.data)
	updated.Users[id] = rec
	if err := s.persistDataset(updated); err != nil {
		return models.User{}, err
	}
	s.data = updated
	return publicUser(rec), nil
}

func (s *Storage) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[id]; !ok {
		return ErrNotFound
	}

	updated := cloneDataset(s.data)
	delete(updated.Users, id)
	// Owned videos and their comments go with the account, mirroring the
	// relational driver's cascading foreign keys.
	for videoID, video := range updated.Videos {
		if video.OwnerID != id {
			continue
		}
		delete(updated.Videos, videoID)
		for commentID, comment := range updated.Comments {
			if comment.VideoID == videoID {
				delete(updated.Comments, commentID)
			}
		}
	}
	for commentID, comment := range updated.Comments {
		if comment.AuthorID == id {
			delete(updated.Comments, commentID)
		}
	}

	if err := s.persistDataset(updated); err != nil {
		return err
	}
	s.data = updated
	return nil
}

func (s *Storage) publicVideoLocked(rec videoRecord) models.Video {
	video := models.Video{
		ID:        rec.ID,
		Name:      rec.Name,
		Source:    rec.Source,
		CreatedAt: rec.CreatedAt,
		Views:     rec.Views,
		Enabled:   rec.Enabled,
		Duration:  rec.Duration,
	}
	if owner, ok := s.data.Users[rec.OwnerID]; ok {
		video.User = publicUser(owner)
		video.User.Email = ""
	}
	for label, locator := range rec.Formats {
		if locator == nil {
			continue
		}
		value := *locator
		video.Formats.Set(label, &value)
	}
	return video
}

func (s *Storage) CreateVideo(ctx context.Context, params CreateVideoParams) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[params.OwnerID]; !ok {
		return models.Video{}, ErrConflict
	}

	updated := cloneDataset(s.data)
	rec := videoRecord{
		ID:        s.nextIDLocked(&updated),
		Name:      params.Name,
		Source:    params.Source,
		Duration:  params.Duration,
		Enabled:   true,
		OwnerID:   params.OwnerID,
		Formats:   emptyFormats(),
		CreatedAt: time.Now().UTC(),
	}
	updated.Videos[rec.ID] = rec

	if err := s.persistDataset(updated); err != nil {
		return models.Video{}, err
	}
	s.data = updated
	return s.publicVideoLocked(rec), nil
}

func (s *Storage) GetVideo(ctx context.Context, id int64) (models.Video, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, false, nil
	}
	return s.publicVideoLocked(rec), true, nil
}

func (s *Storage) ListVideos(ctx context.Context, filter VideoFilter, page Page) ([]models.Video, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]videoRecord, 0, len(s.data.Videos))
	for _, rec := range s.data.Videos {
		if filter.Name != nil && !strings.Contains(rec.Name, *filter.Name) {
			continue
		}
		if filter.OwnerID != nil && rec.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.OwnerPseudo != nil {
			owner, ok := s.data.Users[rec.OwnerID]
			if !ok || owner.Pseudo == nil || !strings.Contains(*owner.Pseudo, *filter.OwnerPseudo) {
				continue
			}
		}
		if filter.MaxDuration != nil && rec.Duration > *filter.MaxDuration {
			continue
		}
		matched = append(matched, rec)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	videos := make([]models.Video, 0, page.Limit)
	for _, rec := range paginate(matched, page) {
		videos = append(videos, s.publicVideoLocked(rec))
	}
	return videos, total, nil
}

func (s *Storage) UpdateVideo(ctx context.Context, videoID, ownerID int64, update VideoUpdate) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data.Videos[videoID]
	if !ok || rec.OwnerID != ownerID {
		return models.Video{}, ErrNotFoundOrForbidden
	}

	if update.Name != nil {
		rec.Name = *update.Name
	}
	if update.OwnerID != nil {
		if _, exists := s.data.Users[*update.OwnerID]; !exists {
			return models.Video{}, ErrConflict
		}
		rec.OwnerID = *update.OwnerID
	}

	updated := cloneDataset(s.data)
	updated.Videos[videoID] = rec
	if err := s.persistDataset(updated); err != nil {
		return models.Video{}, err
	}
	s.data = updated
	return s.publicVideoLocked(rec), nil
}

func (s *Storage) AttachEncoding(ctx context.Context, videoID int64, format, locator string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data.Videos[videoID]
	if !ok {
		return models.Video{}, ErrNotFound
	}

	updated := cloneDataset(s.data)
	rec = updated.Videos[videoID]
	value := locator
	rec.Formats[format] = &value
	updated.Videos[videoID] = rec

	if err := s.persistDataset(updated); err != nil {
		return models.Video{}, err
	}
	s.data = updated
	return s.publicVideoLocked(rec), nil
}

func (s *Storage) DeleteVideo(ctx context.Context, videoID, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data.Videos[videoID]
	if !ok || rec.OwnerID != ownerID {
		return ErrNotFoundOrForbidden
	}

	updated := cloneDataset(s.data)
	delete(updated.Videos, videoID)
	for commentID, comment := range updated.Comments {
		if comment.VideoID == videoID {
			delete(updated.Comments, commentID)
		}
	}

	if err := s.persistDataset(updated); err != nil {
		return err
	}
	s.data = updated
	return nil
}

func (s *Storage) CreateComment(ctx context.Context, videoID, authorID int64, body string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Videos[videoID]; !ok {
		return models.Comment{}, ErrNotFound
	}
	author, ok := s.data.Users[authorID]
	if !ok {
		return models.Comment{}, ErrConflict
	}

	updated := cloneDataset(s.data)
	rec := commentRecord{
		ID:        s.nextIDLocked(&updated),
		Body:      body,
		VideoID:   videoID,
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
	}
	updated.Comments[rec.ID] = rec

	if err := s.persistDataset(updated); err != nil {
		return models.Comment{}, err
	}
	s.data = updated

	comment := models.Comment{
		ID:        rec.ID,
		Body:      rec.Body,
		VideoID:   rec.VideoID,
		User:      publicUser(author),
		CreatedAt: rec.CreatedAt,
	}
	comment.User.Email = ""
	return comment, nil
}

func (s *Storage) ListComments(ctx context.Context, videoID int64, page Page) ([]models.Comment, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]commentRecord, 0, len(s.data.Comments))
	for _, rec := range s.data.Comments {
		if rec.VideoID != videoID {
			continue
		}
		matched = append(matched, rec)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	comments := make([]models.Comment, 0, page.Limit)
	for _, rec := range paginate(matched, page) {
		comment := models.Comment{
			ID:        rec.ID,
			Body:      rec.Body,
			VideoID:   rec.VideoID,
			CreatedAt: rec.CreatedAt,
		}
		if author, ok := s.data.Users[rec.AuthorID]; ok {
			comment.User = publicUser(author)
			comment.User.Email = ""
		}
		comments = append(comments, comment)
	}
	return comments, total, nil
}

// paginate slices a sorted result set according to the page bounds. A zero
// limit yields no rows, matching SQL LIMIT 0, and an out-of-range offset in
// either direction addresses past the end.
func paginate[T any](items []T, page Page) []T {
	if page.Limit <= 0 || page.Offset < 0 || page.Offset >= len(items) {
		return nil
	}
	end := len(items)
	if page.Offset+page.Limit < end {
		end = page.Offset + page.Limit
	}
	return items[page.Offset:end]
}

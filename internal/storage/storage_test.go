package storage

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	return store
}

func ptr[T any](v T) *T {
	return &v
}

func createUser(t *testing.T, store *Storage, username, email string) int64 {
	t.Helper()
	user, err := store.CreateUser(context.Background(), CreateUserParams{
		Username: username,
		Email:    email,
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user.ID
}

func createVideo(t *testing.T, store *Storage, ownerID int64, name string) int64 {
	t.Helper()
	video, err := store.CreateVideo(context.Background(), CreateVideoParams{
		Name:    name,
		Source:  "public/videos/" + name,
		OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("create video %s: %v", name, err)
	}
	return video.ID
}

func TestCreateUserConflicts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createUser(t, store, "alice", "alice@example.com")

	if _, err := store.CreateUser(ctx, CreateUserParams{Username: "alice", Email: "other@example.com", Password: "x"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate username: got %v, want ErrConflict", err)
	}
	if _, err := store.CreateUser(ctx, CreateUserParams{Username: "bob", Email: "ALICE@example.com", Password: "x"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email: got %v, want ErrConflict", err)
	}
}

func TestAuthenticateUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createUser(t, store, "alice", "alice@example.com")

	user, err := store.AuthenticateUser(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Username != "alice" || user.Email != "alice@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}

	if _, err := store.AuthenticateUser(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := store.AuthenticateUser(ctx, "nobody", "secret"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown login: got %v, want ErrNotFound", err)
	}
}

func TestStateSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ctx := context.Background()

	store, err := NewStorage(path)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	id := createUser(t, store, "alice", "alice@example.com")
	createVideo(t, store, id, "clip.mp4")

	reloaded, err := NewStorage(path)
	if err != nil {
		t.Fatalf("reload storage: %v", err)
	}
	if _, ok, err := reloaded.GetUser(ctx, id); err != nil || !ok {
		t.Fatalf("user missing after reload: ok=%v err=%v", ok, err)
	}
	videos, total, err := reloaded.ListVideos(ctx, VideoFilter{}, Page{Limit: 10})
	if err != nil || total != 1 || len(videos) != 1 {
		t.Fatalf("videos after reload: total=%d len=%d err=%v", total, len(videos), err)
	}
}

func TestFailedPersistKeepsPreviousState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createUser(t, store, "alice", "alice@example.com")

	store.persistOverride = func(dataset) error { return errors.New("disk full") }
	if _, err := store.CreateUser(ctx, CreateUserParams{Username: "bob", Email: "bob@example.com", Password: "x"}); err == nil {
		t.Fatal("expected persist failure")
	}
	store.persistOverride = nil

	users, total, err := store.ListUsers(ctx, nil, Page{Limit: 10})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].Username != "alice" {
		t.Fatalf("state mutated after failed persist: total=%d users=%+v", total, users)
	}
}

func TestUpdateUserConflictAndNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	aliceID := createUser(t, store, "alice", "alice@example.com")
	createUser(t, store, "bob", "bob@example.com")

	if _, err := store.UpdateUser(ctx, aliceID, UserUpdate{Username: ptr("bob")}); !errors.Is(err, ErrConflict) {
		t.Fatalf("username conflict: got %v, want ErrConflict", err)
	}
	if _, err := store.UpdateUser(ctx, 999, UserUpdate{Username: ptr("carol")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user: got %v, want ErrNotFound", err)
	}

	updated, err := store.UpdateUser(ctx, aliceID, UserUpdate{Pseudo: ptr("Ally"), Password: ptr("changed")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Pseudo == nil || *updated.Pseudo != "Ally" {
		t.Fatalf("pseudo not updated: %+v", updated)
	}
	if _, err := store.AuthenticateUser(ctx, "alice", "changed"); err != nil {
		t.Fatalf("authenticate with new password: %v", err)
	}
}

func TestVideoOwnershipMutations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	aliceID := createUser(t, store, "alice", "alice@example.com")
	bobID := createUser(t, store, "bob", "bob@example.com")
	videoID := createVideo(t, store, aliceID, "clip.mp4")

	// A non-owner cannot learn whether the video exists.
	if _, err := store.UpdateVideo(ctx, videoID, bobID, VideoUpdate{Name: ptr("stolen")}); !errors.Is(err, ErrNotFoundOrForbidden) {
		t.Fatalf("non-owner update: got %v, want ErrNotFoundOrForbidden", err)
	}
	if _, err := store.UpdateVideo(ctx, 999, aliceID, VideoUpdate{Name: ptr("ghost")}); !errors.Is(err, ErrNotFoundOrForbidden) {
		t.Fatalf("missing video update: got %v, want ErrNotFoundOrForbidden", err)
	}
	if err := store.DeleteVideo(ctx, videoID, bobID); !errors.Is(err, ErrNotFoundOrForbidden) {
		t.Fatalf("non-owner delete: got %v, want ErrNotFoundOrForbidden", err)
	}

	if _, err := store.UpdateVideo(ctx, videoID, aliceID, VideoUpdate{OwnerID: ptr(int64(999))}); !errors.Is(err, ErrConflict) {
		t.Fatalf("transfer to missing owner: got %v, want ErrConflict", err)
	}

	video, err := store.UpdateVideo(ctx, videoID, aliceID, VideoUpdate{Name: ptr("renamed"), OwnerID: &bobID})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if video.Name != "renamed" || video.User.ID != bobID {
		t.Fatalf("unexpected video after transfer: %+v", video)
	}

	if err := store.DeleteVideo(ctx, videoID, bobID); err != nil {
		t.Fatalf("new owner delete: %v", err)
	}
}

func TestAttachEncodingFillsSingleSlot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	aliceID := createUser(t, store, "alice", "alice@example.com")
	videoID := createVideo(t, store, aliceID, "clip.mp4")

	video, err := store.AttachEncoding(ctx, videoID, "720", "encoded/clip-720.mp4")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if video.Formats.F720 == nil || *video.Formats.F720 != "encoded/clip-720.mp4" {
		t.Fatalf("720 slot not set: %+v", video.Formats)
	}
	for _, label := range []string{"1080", "480", "360", "240", "144"} {
		if video.Formats.Get(label) != nil {
			t.Fatalf("slot %s unexpectedly set", label)
		}
	}

	if _, err := store.AttachEncoding(ctx, 999, "720", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing video attach: got %v, want ErrNotFound", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	aliceID := createUser(t, store, "alice", "alice@example.com")
	bobID := createUser(t, store, "bob", "bob@example.com")
	videoID := createVideo(t, store, aliceID, "clip.mp4")
	if _, err := store.CreateComment(ctx, videoID, bobID, "nice"); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if err := store.DeleteUser(ctx, aliceID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, ok, _ := store.GetVideo(ctx, videoID); ok {
		t.Fatal("video survived owner deletion")
	}
	if _, total, _ := store.ListComments(ctx, videoID, Page{Limit: 10}); total != 0 {
		t.Fatalf("comments survived cascade: total=%d", total)
	}
}

func TestListVideosFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	aliceID := createUser(t, store, "alice", "alice@example.com")
	bob, err := store.CreateUser(ctx, CreateUserParams{Username: "bob", Pseudo: ptr("Bobby"), Email: "bob@example.com", Password: "x"})
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}
	createVideo(t, store, aliceID, "cats.mp4")
	bobClip, err := store.CreateVideo(ctx, CreateVideoParams{Name: "dogs.mp4", Source: "s", Duration: 30, OwnerID: bob.ID})
	if err != nil {
		t.Fatalf("create bob video: %v", err)
	}

	videos, total, err := store.ListVideos(ctx, VideoFilter{Name: ptr("dogs")}, Page{Limit: 10})
	if err != nil || total != 1 || videos[0].ID != bobClip.ID {
		t.Fatalf("name filter: total=%d err=%v", total, err)
	}
	videos, total, err = store.ListVideos(ctx, VideoFilter{OwnerPseudo: ptr("Bob")}, Page{Limit: 10})
	if err != nil || total != 1 || videos[0].User.ID != bob.ID {
		t.Fatalf("pseudo filter: total=%d err=%v", total, err)
	}
	_, total, err = store.ListVideos(ctx, VideoFilter{MaxDuration: ptr(10)}, Page{Limit: 10})
	if err != nil || total != 1 {
		t.Fatalf("duration filter: total=%d err=%v", total, err)
	}

	// Owner summaries never expose email.
	videos, _, err = store.ListVideos(ctx, VideoFilter{}, Page{Limit: 10})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	for _, video := range videos {
		if video.User.Email != "" {
			t.Fatalf("owner email leaked: %+v", video.User)
		}
	}
}

func TestListUsersPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"u1", "u2", "u3", "u4", "u5"} {
		createUser(t, store, name, name+"@example.com")
	}

	users, total, err := store.ListUsers(ctx, nil, Page{Offset: 0, Limit: 2})
	if err != nil || total != 5 || len(users) != 2 {
		t.Fatalf("first page: total=%d len=%d err=%v", total, len(users), err)
	}
	// Newest first, and the listing never carries addresses.
	if users[0].Username != "u5" || users[1].Username != "u4" {
		t.Fatalf("unexpected order: %+v", users)
	}
	for _, user := range users {
		if user.Email != "" {
			t.Fatalf("listing leaked email for %s: %q", user.Username, user.Email)
		}
	}

	users, _, err = store.ListUsers(ctx, nil, Page{Offset: 4, Limit: 2})
	if err != nil || len(users) != 1 {
		t.Fatalf("last page: len=%d err=%v", len(users), err)
	}
	users, _, err = store.ListUsers(ctx, nil, Page{Offset: 10, Limit: 2})
	if err != nil || len(users) != 0 {
		t.Fatalf("page past end: len=%d err=%v", len(users), err)
	}
	users, _, err = store.ListUsers(ctx, nil, Page{Offset: 0, Limit: 0})
	if err != nil || len(users) != 0 {
		t.Fatalf("zero limit: len=%d err=%v", len(users), err)
	}
	// Out-of-range offsets in either direction are an empty page, not a panic.
	users, _, err = store.ListUsers(ctx, nil, Page{Offset: math.MaxInt, Limit: 2})
	if err != nil || len(users) != 0 {
		t.Fatalf("huge offset: len=%d err=%v", len(users), err)
	}
	users, _, err = store.ListUsers(ctx, nil, Page{Offset: -3, Limit: 2})
	if err != nil || len(users) != 0 {
		t.Fatalf("negative offset: len=%d err=%v", len(users), err)
	}
}

func TestListCommentsScopedToVideo(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	aliceID := createUser(t, store, "alice", "alice@example.com")
	first := createVideo(t, store, aliceID, "a.mp4")
	second := createVideo(t, store, aliceID, "b.mp4")

	if _, err := store.CreateComment(ctx, first, aliceID, "on first"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := store.CreateComment(ctx, second, aliceID, "on second"); err != nil {
		t.Fatalf("comment: %v", err)
	}

	comments, total, err := store.ListComments(ctx, first, Page{Limit: 10})
	if err != nil || total != 1 || len(comments) != 1 {
		t.Fatalf("scoped list: total=%d len=%d err=%v", total, len(comments), err)
	}
	if comments[0].Body != "on first" || comments[0].VideoID != first {
		t.Fatalf("unexpected comment: %+v", comments[0])
	}

	if _, err := store.CreateComment(ctx, 999, aliceID, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("comment on missing video: got %v, want ErrNotFound", err)
	}
}

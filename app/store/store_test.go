package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, users *UserStore, username string) *User {
	t.Helper()
	created, err := users.Create(username, "secret", username+" name", "")
	require.NoError(t, err)
	require.True(t, created)
	user, err := users.ByUsername(username)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

func TestUserCreateAndVerify(t *testing.T) {
	users := NewUserStore(openTestDB(t))

	user := createTestUser(t, users, "alice")
	assert.Equal(t, "alice name", user.DisplayName)
	assert.NotEqual(t, "secret", user.PasswordHash, "passwords are stored digested")

	// Duplicate username reports false without an error.
	created, err := users.Create("alice", "other", "", "")
	require.NoError(t, err)
	assert.False(t, created)

	verified, err := users.VerifyPassword("alice", "secret")
	require.NoError(t, err)
	require.NotNil(t, verified)
	assert.Equal(t, user.ID, verified.ID)

	wrong, err := users.VerifyPassword("alice", "nope")
	require.NoError(t, err)
	assert.Nil(t, wrong)
}

func TestPostLifecycle(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	posts := NewPostStore(db)
	author := createTestUser(t, users, "author")

	id, err := posts.Create(&Post{
		AuthorID: author.ID,
		Title:    "First",
		Content:  "<p>hello</p>",
		Category: "go",
		Tags:     []string{"a", "b"},
	}, "")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	post, err := posts.ByID(id)
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, "First", post.Title)
	assert.Equal(t, "author name", post.AuthorName)
	assert.Equal(t, PermissionPublic, post.Permission)
	assert.Equal(t, []string{"a", "b"}, post.Tags)
	assert.False(t, post.AllowComments, "zero value carries through; handlers set the default")

	listed, err := posts.ListByAuthor(author.ID, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	missing, err := posts.ByID("no-such-id")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, posts.Delete(id))
	gone, err := posts.ByID(id)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestPostPasswordVerification(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	posts := NewPostStore(db)
	author := createTestUser(t, users, "author")

	id, err := posts.Create(&Post{
		AuthorID:   author.ID,
		Title:      "Locked",
		Content:    "x",
		Permission: PermissionPassword,
	}, "open sesame")
	require.NoError(t, err)

	ok, err := posts.VerifyPassword(id, "open sesame")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = posts.VerifyPassword(id, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanView(t *testing.T) {
	author := &User{ID: 1}
	vip := &User{ID: 2, IsVIP: true}
	regular := &User{ID: 3}

	tests := []struct {
		name       string
		permission string
		viewer     *User
		unlocked   bool
		want       bool
	}{
		{"public anonymous", PermissionPublic, nil, false, true},
		{"vip post for vip", PermissionVIP, vip, false, true},
		{"vip post for regular", PermissionVIP, regular, false, false},
		{"vip post anonymous", PermissionVIP, nil, false, false},
		{"password post locked", PermissionPassword, regular, false, false},
		{"password post unlocked", PermissionPassword, regular, true, true},
		{"private post hidden", PermissionPrivate, vip, false, false},
		{"author always sees own", PermissionPrivate, author, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := &Post{AuthorID: 1, Permission: tt.permission}
			assert.Equal(t, tt.want, post.CanView(tt.viewer, tt.unlocked))
		})
	}
}

func TestInteractionToggle(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	posts := NewPostStore(db)
	interactions := NewInteractionStore(db)
	author := createTestUser(t, users, "author")

	id, err := posts.Create(&Post{AuthorID: author.ID, Title: "t", Content: "c"}, "")
	require.NoError(t, err)

	liked, err := interactions.ToggleLike(author.ID, id)
	require.NoError(t, err)
	assert.True(t, liked)

	count, err := interactions.CountLikes(id)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	hasLiked, err := interactions.HasLiked(author.ID, id)
	require.NoError(t, err)
	assert.True(t, hasLiked)

	hasFavorited, err := interactions.HasFavorited(author.ID, id)
	require.NoError(t, err)
	assert.False(t, hasFavorited, "likes and favorites are tracked separately")

	liked, err = interactions.ToggleLike(author.ID, id)
	require.NoError(t, err)
	assert.False(t, liked)

	count, err = interactions.CountLikes(id)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	hasLiked, err = interactions.HasLiked(author.ID, id)
	require.NoError(t, err)
	assert.False(t, hasLiked)
}

func TestCommentThreading(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	posts := NewPostStore(db)
	comments := NewCommentStore(db)
	author := createTestUser(t, users, "author")

	postID, err := posts.Create(&Post{AuthorID: author.ID, Title: "t", Content: "c"}, "")
	require.NoError(t, err)

	rootID, err := comments.Add(postID, author.ID, "", "root", "")
	require.NoError(t, err)
	_, err = comments.Add(postID, author.ID, rootID, "reply", "👍")
	require.NoError(t, err)
	_, err = comments.Add(postID, author.ID, "deleted-parent", "orphan", "")
	require.NoError(t, err)

	threaded, err := comments.Threaded(postID)
	require.NoError(t, err)
	require.Len(t, threaded, 2, "root and orphan surface at the top level")

	byContent := map[string]*Comment{}
	for _, c := range threaded {
		byContent[c.Content] = c
	}
	root, ok := byContent["root"]
	require.True(t, ok)
	require.Len(t, root.Replies, 1)
	assert.Equal(t, "reply", root.Replies[0].Content)
	assert.Equal(t, "👍", root.Replies[0].Emoji)
	orphan, ok := byContent["orphan"]
	require.True(t, ok)
	assert.Empty(t, orphan.Replies)
}

func TestMessageStates(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	messages := NewMessageStore(db)
	sender := createTestUser(t, users, "sender")
	receiver := createTestUser(t, users, "receiver")

	id, err := messages.Send(sender.ID, receiver.ID, "hello")
	require.NoError(t, err)

	inbox, err := messages.Inbox(receiver.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "hello", inbox[0].Content)
	assert.False(t, inbox[0].IsRead)

	sent, err := messages.Sent(sender.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)

	// Receiver trashes their copy; the sender still sees it.
	changed, err := messages.Delete(id, receiver.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	inbox, err = messages.Inbox(receiver.ID)
	require.NoError(t, err)
	assert.Empty(t, inbox)

	trash, err := messages.Trash(receiver.ID)
	require.NoError(t, err)
	require.Len(t, trash, 1)

	sent, err = messages.Sent(sender.ID)
	require.NoError(t, err)
	assert.Len(t, sent, 1)

	// Restore brings it back to the inbox.
	changed, err = messages.Restore(id, receiver.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	inbox, err = messages.Inbox(receiver.ID)
	require.NoError(t, err)
	assert.Len(t, inbox, 1)

	// A non-participant cannot change states.
	outsider := createTestUser(t, users, "outsider")
	changed, err = messages.Delete(id, outsider.ID)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestMessagePurge(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	messages := NewMessageStore(db)
	a := createTestUser(t, users, "a")
	b := createTestUser(t, users, "b")

	id, err := messages.Send(a.ID, b.ID, "bye")
	require.NoError(t, err)

	// Each side trashes and then purges; after both purge, the row is gone.
	for _, userID := range []int64{a.ID, b.ID} {
		changed, err := messages.Delete(id, userID)
		require.NoError(t, err)
		require.True(t, changed)
		changed, err = messages.PermanentlyDelete(id, userID)
		require.NoError(t, err)
		require.True(t, changed)
	}

	remaining, err := messages.ByID(id, a.ID)
	require.NoError(t, err)
	assert.Nil(t, remaining)
}

func TestConversationOrderAndContacts(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	messages := NewMessageStore(db)
	a := createTestUser(t, users, "a")
	b := createTestUser(t, users, "b")

	_, err := messages.Send(a.ID, b.ID, "first")
	require.NoError(t, err)
	_, err = messages.Send(b.ID, a.ID, "second")
	require.NoError(t, err)

	conversation, err := messages.Conversation(a.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, conversation, 2)
	contents := []string{conversation[0].Content, conversation[1].Content}
	assert.ElementsMatch(t, []string{"first", "second"}, contents)

	contacts, err := messages.ContactIDs(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, contacts)
}

func TestSubscriptionDeduplication(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	subscriptions := NewSubscriptionStore(db)
	follower := createTestUser(t, users, "follower")

	require.NoError(t, subscriptions.Add(follower.ID, SubscribeAuthor, "writer"))
	require.NoError(t, subscriptions.Add(follower.ID, SubscribeAuthor, "writer"))

	subs, err := subscriptions.List(follower.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	count, err := subscriptions.SubscriberCount("writer")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPrivacyDefaultsAndUpsert(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)
	privacy := NewPrivacyStore(db)
	user := createTestUser(t, users, "private")

	settings, err := privacy.Get(user.ID)
	require.NoError(t, err)
	assert.False(t, settings.HidePosts)
	assert.False(t, settings.HideFavorites)

	require.NoError(t, privacy.Update(user.ID, true, false, "gate"))
	ok, err := privacy.VerifyAccessPassword(user.ID, "gate")
	require.NoError(t, err)
	assert.True(t, ok)

	// Empty password keeps the stored digest.
	require.NoError(t, privacy.Update(user.ID, true, true, ""))
	ok, err = privacy.VerifyAccessPassword(user.ID, "gate")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMetricsRoundTrip(t *testing.T) {
	metrics := NewMetricStore(openTestDB(t))

	require.NoError(t, metrics.Record(1.5, 100.0, 1.5, 1))
	require.NoError(t, metrics.Record(2.5, 200.0, 2.5, 2))

	recent, err := metrics.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// Chronological order: oldest first.
	assert.Equal(t, int64(1), recent[0].RequestCount)
	assert.Equal(t, int64(2), recent[1].RequestCount)
}

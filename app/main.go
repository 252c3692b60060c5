package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"

	"github.com/neoblog/neoblog/app/api"
	"github.com/neoblog/neoblog/app/auth"
	"github.com/neoblog/neoblog/app/render"
	"github.com/neoblog/neoblog/app/router"
	"github.com/neoblog/neoblog/app/server"
	"github.com/neoblog/neoblog/app/session"
	"github.com/neoblog/neoblog/app/store"
	"github.com/neoblog/neoblog/app/types"
	"github.com/neoblog/neoblog/app/web"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "listen address")
	dataPath := flag.String("data", "data/neoblog.sqlite3", "sqlite database file")
	templateRoot := flag.String("templates", "templates", "template directory")
	staticRoot := flag.String("static", "static", "static file directory")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	db, err := store.Open(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening store")
	}
	defer db.Close()

	users := store.NewUserStore(db)
	posts := store.NewPostStore(db)
	comments := store.NewCommentStore(db)
	interactions := store.NewInteractionStore(db)
	subscriptions := store.NewSubscriptionStore(db)
	messages := store.NewMessageStore(db)
	privacy := store.NewPrivacyStore(db)
	metrics := store.NewMetricStore(db)

	sessions := session.NewManager()
	authService := auth.NewService(users, sessions)
	renderer := render.New(*templateRoot)

	pages := web.New(renderer, authService, users, posts, comments, interactions, subscriptions, messages, privacy)
	endpoints := api.New(authService, users, posts, comments, interactions, subscriptions, messages, metrics)

	rt := router.New()
	registerRoutes(rt, pages, endpoints)

	srv := server.New(*addr, rt, *staticRoot, metrics, log)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// registerRoutes builds the route table. Order matters: literal segments must
// be registered before parameterized siblings or the parameter swallows them.
func registerRoutes(rt router.Router, pages *web.Handlers, endpoints *api.Handlers) {
	rt.Add("/", types.Get, pages.Homepage)
	rt.Add("/register", types.Get, pages.ShowRegister)
	rt.Add("/register", types.Post, pages.Register)
	rt.Add("/login", types.Get, pages.ShowLogin)
	rt.Add("/login", types.Post, pages.Login)
	rt.Add("/logout", types.Get, pages.Logout)
	rt.Add("/profile", types.Get, pages.Profile)
	rt.Add("/profile", types.Post, pages.UpdateProfile)
	rt.Add("/profile/privacy", types.Post, pages.UpdatePrivacy)

	rt.Add("/posts/new", types.Get, pages.ShowCreatePost)
	rt.Add("/posts/new", types.Post, pages.CreatePost)
	rt.Add("/posts/<post_id>", types.Get, pages.ViewPost)
	rt.Add("/posts/<post_id>/comment", types.Post, pages.AddComment)
	rt.Add("/posts/<post_id>/favorite", types.Post, pages.ToggleFavorite)
	rt.Add("/posts/<post_id>/like", types.Post, pages.ToggleLike)
	rt.Add("/posts/<post_id>/unlock", types.Post, pages.UnlockPost)
	rt.Add("/posts/<post_id>/delete", types.Post, pages.DeletePost)

	rt.Add("/subscriptions", types.Get, pages.ShowSubscriptions)
	rt.Add("/subscriptions/category", types.Post, pages.SubscribeCategory)
	rt.Add("/subscriptions/author", types.Post, pages.SubscribeAuthor)
	rt.Add("/subscriptions/cancel", types.Post, pages.CancelSubscription)
	rt.Add("/messages", types.Get, pages.Mailbox)
	rt.Add("/messages", types.Post, pages.SendMessage)

	rt.Add("/api/posts", types.Get, endpoints.ListPosts)
	rt.Add("/api/posts", types.Post, endpoints.CreatePost)
	rt.Add("/api/posts/<post_id>", types.Get, endpoints.GetPost)
	rt.Add("/api/posts/<post_id>/permissions", types.Post, endpoints.UpdatePermissions)
	rt.Add("/api/posts/<post_id>/unlock", types.Post, endpoints.UnlockPost)
	rt.Add("/api/posts/<post_id>/like", types.Post, endpoints.ToggleLike)
	rt.Add("/api/posts/<post_id>/favorite", types.Post, endpoints.ToggleFavorite)
	rt.Add("/api/posts/<post_id>/comments", types.Get, endpoints.ListComments)
	rt.Add("/api/posts/<post_id>/comments", types.Post, endpoints.CreateComment)

	rt.Add("/api/subscriptions", types.Get, endpoints.ListSubscriptions)
	rt.Add("/api/subscriptions", types.Post, endpoints.CreateSubscription)
	rt.Add("/api/subscriptions/<subscription_id>", types.Delete, endpoints.RemoveSubscription)

	rt.Add("/api/messages", types.Get, endpoints.ListMessages)
	rt.Add("/api/messages", types.Post, endpoints.SendMessage)
	rt.Add("/api/messages/inbox", types.Get, endpoints.Inbox)
	rt.Add("/api/messages/sent", types.Get, endpoints.Sent)
	rt.Add("/api/messages/trash", types.Get, endpoints.Trash)
	rt.Add("/api/messages/<message_id>", types.Get, endpoints.GetMessage)
	rt.Add("/api/messages/<message_id>/delete", types.Post, endpoints.DeleteMessage)
	rt.Add("/api/messages/<message_id>/restore", types.Post, endpoints.RestoreMessage)
	rt.Add("/api/messages/<message_id>/permanent-delete", types.Post, endpoints.PermanentlyDeleteMessage)

	rt.Add("/api/performance/metrics", types.Get, endpoints.ListMetrics)
	rt.Add("/api/performance/metrics", types.Post, endpoints.RecordMetric)
}

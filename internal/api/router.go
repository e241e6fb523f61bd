package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/najdeno/internal/chat"
	"github.com/erazemk/najdeno/internal/claim"
	"github.com/erazemk/najdeno/internal/imaging"
)

// Options wires the router to its collaborators.
type Options struct {
	DB        *sql.DB
	JWTSecret string
	TokenTTL  time.Duration

	Claims      *claim.Service
	Chat        *chat.Service
	Broadcaster Broadcaster
	Proofs      ProofStore
	Images      imaging.Normalizer
	MaxUpload   int64

	// Socket serves GET /api/ws if set.
	Socket http.Handler
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(opts Options) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: opts.DB, JWTSecret: opts.JWTSecret, TokenTTL: opts.TokenTTL}
	uploadsHandler := &UploadsHandler{Store: opts.Proofs, Images: opts.Images, MaxBytes: opts.MaxUpload}
	itemsHandler := &ItemsHandler{
		DB:          opts.DB,
		Claims:      opts.Claims,
		Chat:        opts.Chat,
		Broadcaster: opts.Broadcaster,
		Uploads:     uploadsHandler,
	}

	authMW := AuthMiddleware(opts.JWTSecret, opts.DB)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	// Public.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("GET /api/uploads/{id}", uploadsHandler.Get)
	if opts.Socket != nil {
		mux.Handle("GET /api/ws", opts.Socket)
	}

	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("POST /api/uploads", authed(uploadsHandler.Upload))

	// Items.
	mux.Handle("POST /api/items", authed(itemsHandler.Create))
	mux.Handle("GET /api/items/mine", authed(itemsHandler.Mine))
	mux.Handle("GET /api/items/{id}", authed(itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}", authed(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", authed(itemsHandler.Delete))

	// Claims.
	mux.Handle("POST /api/items/{id}/claim", authed(itemsHandler.Claim))
	mux.Handle("POST /api/items/{id}/claim-request", authed(itemsHandler.ClaimRequest))
	mux.Handle("POST /api/items/{id}/mark-claimed", authed(itemsHandler.MarkClaimed))
	mux.Handle("POST /api/items/{id}/deny-claim", authed(itemsHandler.DenyClaim))
	mux.Handle("GET /api/items/claim-requests/inbox", authed(itemsHandler.Inbox))

	// Chat.
	mux.Handle("GET /api/items/{id}/messages", authed(itemsHandler.Messages))
	mux.Handle("POST /api/items/{id}/message", authed(itemsHandler.PostMessage))

	return mux
}

// Package dashboard serves the MindSpark web page, its recent-work feed
// and the streaming chat socket.
package dashboard

import (
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mindspark-app/mindspark/internal/chat"
	"github.com/mindspark-app/mindspark/internal/library"
)

// RecentLimit is how many saved items the dashboard shows.
const RecentLimit = 6

// Dashboard provides the web page and the chat socket.
type Dashboard struct {
	library *library.Store
	chats   *chat.Manager
	logger  *zap.Logger

	// refs counts the open connections using each chat session.
	mu   sync.Mutex
	refs map[string]int
}

// New creates a new Dashboard. chats may be nil when no provider is configured.
func New(lib *library.Store, chats *chat.Manager, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{
		library: lib,
		chats:   chats,
		logger:  logger,
		refs:    make(map[string]int),
	}
}

// RegisterRoutes mounts all dashboard routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Get("/", d.ServeIndex)
	r.Get("/api/dashboard/stats", d.handleStats)
	r.Get("/api/dashboard/recent", d.handleRecent)
	r.Delete("/api/dashboard/chats/{id}", d.handleDeleteChat)
	r.Get("/ws/chat", d.handleWebSocket)
}

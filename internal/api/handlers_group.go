package api

import "Vitrin/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	ListingHandler *handler.ListingHandler
	DraftHandler   *handler.DraftHandler
	AdminHandler   *handler.AdminHandler
	ContactHandler *handler.ContactHandler
	WsHandler      *handler.WsHandler
}

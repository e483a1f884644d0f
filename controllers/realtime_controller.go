package controllers

import (
	"context"
	"net/http"

	"nutrilog/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type RealtimeController struct {
	RT       *services.RealtimeHub
	upgrader websocket.Upgrader
}

// NewRealtimeController only accepts upgrades from allowedOrigins; an empty
// list accepts any origin.
func NewRealtimeController(rt *services.RealtimeHub, allowedOrigins []string) *RealtimeController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &RealtimeController{
		RT: rt,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// GET /realtime/ws
func (rc *RealtimeController) ChangesWS(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	conn, err := rc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cl := &services.WSClient{UserID: uid, Conn: conn}

	ctx, cancel := context.WithCancel(context.Background())
	// read loop ends on client close/error
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	rc.RT.Serve(ctx, cl)
	cancel()
}

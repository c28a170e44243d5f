package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-orders/kds"
	"github.com/yeremiapane/restaurant-orders/utils"
)

const maxInboundMessage = 4096

// KDSController upgrades authenticated clients to websockets and keeps them
// in their tenant's room for the life of the connection.
type KDSController struct {
	Hub      *kds.Hub
	upgrader websocket.Upgrader
}

func NewKDSController(hub *kds.Hub, allowedOrigin string) *KDSController {
	return &KDSController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// Handler -> GET /ws?token=
func (kc *KDSController) Handler(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	client, err := kc.Hub.Join(actor.TenantID, actor.Role, ws)
	if err != nil {
		ws.Close()
		return
	}
	defer kc.Hub.Leave(client)

	// clients only listen; reading detects the disconnect
	ws.SetReadLimit(maxInboundMessage)
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.ErrorLogger.WithFields(logrus.Fields{"tenant": actor.TenantID, "role": actor.Role}).
					Warnf("websocket closed: %v", err)
			}
			return
		}
	}
}

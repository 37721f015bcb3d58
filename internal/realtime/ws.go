package realtime

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"podnotes/backend/internal/platform/rbac"
	"podnotes/backend/internal/server/middleware"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler streams change events to websocket clients. One connection carries
// one subscription: table and scope come from query parameters at upgrade time.
type WSHandler struct {
	broker *Broker
	roles  rbac.PodRoleGetter
	log    *logrus.Entry
}

// NewWSHandler returns a websocket handler backed by the broker. roles guards
// pod-scoped subscriptions.
func NewWSHandler(broker *Broker, roles rbac.PodRoleGetter) *WSHandler {
	return &WSHandler{broker: broker, roles: roles, log: logrus.WithField("component", "realtime_ws")}
}

// Serve upgrades the request and streams events until the client disconnects.
// Query parameters: table (notes or pod_members, default notes) and pod_id
// (empty for the caller's personal notes). Pod-scoped subscriptions require
// membership in the pod; runs behind the auth middleware.
func (h *WSHandler) Serve(c *gin.Context) {
	table := c.DefaultQuery("table", TableNotes)
	if table != TableNotes && table != TableMembers {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown table"})
		return
	}
	podID := c.Query("pod_id")

	var filter Filter
	if podID != "" {
		if _, _, err := rbac.RequirePodMember(c.Request.Context(), h.roles, podID); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this pod"})
			return
		}
		filter.PodID = podID
	} else {
		userID, _ := middleware.GetUserID(c.Request.Context())
		filter.OwnerID = userID
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("upgrade failed")
		return
	}

	sub := h.broker.Subscribe(table, filter)
	go h.writePump(conn, sub)
	h.readPump(conn, sub)
}

// writePump forwards subscription events and pings to the peer. Exits when the
// subscription channel closes or a write fails.
func (h *WSHandler) writePump(conn *websocket.Conn, sub *Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case evt, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes control frames until the peer goes away, then cancels the
// subscription so writePump unwinds.
func (h *WSHandler) readPump(conn *websocket.Conn, sub *Subscription) {
	defer sub.Cancel()
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/the-lightning-land/connectivityd/connectivity"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

type connectivityEvent struct {
	Status connectivity.NetworkStatus `json:"status"`
	Time   time.Time                  `json:"time"`
}

func (a *Api) handleGetConnectivityEvents() http.HandlerFunc {
	upgrader := &websocket.Upgrader{}

	return func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// the upgrader already replied with an error
			a.log.Warnf("Could not upgrade connection: %v", err)
			return
		}

		defer c.Close()

		client := a.observer.StatusChanges()
		defer client.Cancel()

		a.log.Debugf("Streaming connectivity events to client %d", client.Id)

		closed := make(chan struct{})

		// read pump
		go func() {
			defer close(closed)

			c.SetReadLimit(512)
			_ = c.SetReadDeadline(time.Now().Add(pongWait))
			c.SetPongHandler(func(string) error {
				return c.SetReadDeadline(time.Now().Add(pongWait))
			})

			for {
				_, _, err := c.ReadMessage()
				if err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						a.log.Errorf("Unexpected websocket closure: %v", err)
					}
					return
				}
			}
		}()

		// write pump
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case status, ok := <-client.Updates:
				_ = c.SetWriteDeadline(time.Now().Add(writeWait))

				if !ok {
					_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
					return
				}

				err := c.WriteJSON(&connectivityEvent{
					Status: status,
					Time:   time.Now().UTC(),
				})
				if err != nil {
					a.log.Debugf("Could not write event to client %d: %v", client.Id, err)
					return
				}
			case <-ticker.C:
				_ = c.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-closed:
				return
			}
		}
	}
}

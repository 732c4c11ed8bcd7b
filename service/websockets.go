package service

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/Comcast/morpha/core"

	"github.com/gorilla/websocket"
)

// Message is what the Websockets API sends.  Exactly one field is
// set.
type Message struct {
	Stride   *core.Stride `json:"stride,omitempty"`
	Response *Response    `json:"response,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// WebSockets makes a handler that upgrades to a Websocket.
//
// Each text message received should be a Request.  The Service runs
// it and sends a Message for each Stride as it's taken followed by a
// Message with the Response (or one with an error).  Requests on one
// connection are processed in order.
func (s *Service) WebSockets(ctx context.Context) http.Handler {
	var upgrader = websocket.Upgrader{} // use default options

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error", err)
			return
		}
		defer c.Close()

		send := func(m *Message) error {
			js, err := json.Marshal(m)
			if err != nil {
				return err
			}
			return c.WriteMessage(websocket.TextMessage, js)
		}

		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Println("read error", err)
				}
				return
			}

			var req Request
			if err := json.Unmarshal(message, &req); err != nil {
				if err = send(&Message{Error: "can't parse: " + err.Error()}); err != nil {
					log.Println("write (err)", err)
					return
				}
				continue
			}

			resp, err := s.Stream(ctx, &req, func(stride *core.Stride) error {
				return send(&Message{Stride: stride})
			})
			m := &Message{Response: resp}
			if err != nil {
				m = &Message{Error: err.Error()}
			}
			if err = send(m); err != nil {
				log.Println("write", err)
				return
			}
		}
	})
}

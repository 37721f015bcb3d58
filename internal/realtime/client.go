package realtime

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client subscribes to a PodNotes server's change feed over websocket. It
// satisfies the same feed contract as LocalFeed, so cache layers can run
// against either the in-process broker or a remote server.
type Client struct {
	baseURL string // e.g. ws://localhost:8080
	token   string // bearer access token
	log     *logrus.Entry
}

// NewClient returns a websocket change-feed client for the given server.
func NewClient(baseURL, token string) *Client {
	return &Client{baseURL: baseURL, token: token, log: logrus.WithField("component", "realtime_client")}
}

// Subscribe dials the server and returns a subscription delivering events in
// arrival order. The returned subscription's channel closes when the
// connection drops or Cancel is called; callers reload and resubscribe.
func (c *Client) Subscribe(table string, filter Filter) (*Subscription, error) {
	u, err := url.Parse(c.baseURL + "/ws/changes")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("table", table)
	if filter.PodID != "" {
		q.Set("pod_id", filter.PodID)
	}
	u.RawQuery = q.Encode()

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		return nil, err
	}

	ch := make(chan ChangeEvent, subscriptionBuffer)
	done := make(chan struct{})
	go func() {
		defer close(ch)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPingHandler(func(appData string) error {
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			_ = conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
			return nil
		})
		for {
			var evt ChangeEvent
			if err := conn.ReadJSON(&evt); err != nil {
				select {
				case <-done:
				default:
					c.log.WithError(err).Debug("change feed closed")
				}
				return
			}
			select {
			case ch <- evt:
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = conn.Close()
		})
	}
	return &Subscription{C: ch, cancel: cancel}, nil
}

// Package quotes streams live trade ticks from the provider's WebSocket
// feed and adapts them to the QuoteStream interface.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client is a WebSocket quote stream for a fixed symbol set.
type Client struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// New creates a streaming quote client.
func New(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration) drepo.QuoteStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect dials the feed.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL+"?token="+c.apiKey, nil)
	if err != nil {
		return fmt.Errorf("quotes connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	log.Printf("quotes: connected")
	return nil
}

// Subscribe registers the configured symbols on the feed.
func (c *Client) Subscribe(ctx context.Context) error {
	conn := c.current()
	if conn == nil {
		return fmt.Errorf("quotes not connected")
	}
	for _, symbol := range c.symbols {
		if err := conn.WriteJSON(map[string]string{"type": "subscribe", "symbol": symbol}); err != nil {
			return fmt.Errorf("subscribe %s: %w", symbol, err)
		}
		log.Printf("quotes: subscribed %s", symbol)
	}
	return nil
}

// Trade frames carry a batch of ticks; everything else on the feed
// (pings, subscription acks) is skipped.
type feedFrame struct {
	Type string `json:"type"`
	Data []struct {
		Symbol string  `json:"s"`
		Price  float64 `json:"p"`
		Volume float64 `json:"v"`
		Millis int64   `json:"t"`
	} `json:"data"`
}

// Read streams quotes and a terminal error. Both channels close when the
// read loop exits. Ticks are dropped rather than blocking when the buffer
// is full.
func (c *Client) Read(ctx context.Context) (<-chan *models.Quote, <-chan error) {
	quotes := make(chan *models.Quote, 1024)
	errs := make(chan error, 1)

	go c.pingLoop(ctx)
	go func() {
		defer close(quotes)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			conn := c.current()
			if conn == nil {
				errs <- fmt.Errorf("quotes connection lost")
				return
			}
			_, raw, err := conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("quotes read: %w", err)
				return
			}

			var frame feedFrame
			if err := json.Unmarshal(raw, &frame); err != nil || frame.Type != "trade" {
				continue
			}
			for _, tick := range frame.Data {
				q := &models.Quote{
					Symbol:    tick.Symbol,
					Price:     tick.Price,
					Volume:    tick.Volume,
					Timestamp: time.UnixMilli(tick.Millis),
				}
				select {
				case quotes <- q:
				default:
				}
			}
		}
	}()

	return quotes, errs
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if conn := c.current(); conn != nil {
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

// Reconnect tears down the connection, waits the configured delay and
// re-subscribes.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close shuts the connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected reports whether the feed is up.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil
	}
	return c.conn
}

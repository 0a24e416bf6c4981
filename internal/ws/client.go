package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// DefaultWSURL is the default WebSocket URL for the CLOB market feed.
	DefaultWSURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

	// Default reconnection parameters
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 30 * time.Second
	defaultBackoffFactor  = 2.0

	// The market channel drops idle connections; it expects a text PING.
	pingInterval = 10 * time.Second
)

var errNotConnected = errors.New("not connected")

// MessageHandler is a callback function for handling parsed WebSocket messages.
type MessageHandler func(messages []Message)

// ReconnectConfig configures the reconnection behavior.
type ReconnectConfig struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	MaxRetries     int // 0 = infinite
}

// DefaultReconnectConfig returns the default reconnection configuration.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		BackoffFactor:  defaultBackoffFactor,
	}
}

// Client is a WebSocket client for the CLOB market channel.
type Client struct {
	url             string
	handler         MessageHandler
	reconnectConfig ReconnectConfig
	logger          *slog.Logger

	mu          sync.Mutex
	writeMu     sync.Mutex
	conn        *websocket.Conn
	tokenIDs    []string
	isConnected bool
}

// NewClient creates a new WebSocket client.
func NewClient(handler MessageHandler) *Client {
	return &Client{
		url:             DefaultWSURL,
		handler:         handler,
		reconnectConfig: DefaultReconnectConfig(),
		logger:          slog.Default(),
	}
}

// WithURL sets a custom WebSocket URL.
func (c *Client) WithURL(url string) *Client {
	c.url = url
	return c
}

// WithReconnectConfig sets the reconnection configuration. Zero fields
// keep their defaults.
func (c *Client) WithReconnectConfig(config ReconnectConfig) *Client {
	def := DefaultReconnectConfig()
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = def.InitialBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = def.MaxBackoff
	}
	if config.BackoffFactor < 1 {
		config.BackoffFactor = def.BackoffFactor
	}
	c.reconnectConfig = config
	return c
}

// WithLogger sets the logger.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Connect establishes the WebSocket connection and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.isConnected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	return c.connectWithBackoff(ctx)
}

func (c *Client) connectWithBackoff(ctx context.Context) error {
	backoff := c.reconnectConfig.InitialBackoff
	retries := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.isConnected = true
			tokenIDs := slices.Clone(c.tokenIDs)
			c.mu.Unlock()

			if len(tokenIDs) > 0 {
				if err := c.sendSubscribe(tokenIDs); err != nil {
					c.logger.Warn("resubscribe failed", "error", err)
				}
			}

			go c.readLoop(ctx, conn)
			go c.pingLoop(ctx, conn)
			return nil
		}

		retries++
		if c.reconnectConfig.MaxRetries > 0 && retries >= c.reconnectConfig.MaxRetries {
			return fmt.Errorf("max retries (%d) exceeded: %w", c.reconnectConfig.MaxRetries, err)
		}

		c.logger.Warn("websocket connection failed", "attempt", retries, "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(time.Duration(float64(backoff)*c.reconnectConfig.BackoffFactor), c.reconnectConfig.MaxBackoff)
	}
}

// Subscribe replaces the subscribed token set.
func (c *Client) Subscribe(tokenIDs []string) error {
	c.mu.Lock()
	c.tokenIDs = slices.Clone(tokenIDs)
	c.mu.Unlock()

	return c.sendSubscribe(tokenIDs)
}

func (c *Client) sendSubscribe(tokenIDs []string) error {
	data, err := json.Marshal(SubscribeMessage{AssetsIDs: tokenIDs, Type: "market"})
	if err != nil {
		return fmt.Errorf("marshaling subscribe message: %w", err)
	}
	if err := c.write(data); err != nil {
		return fmt.Errorf("writing subscribe message: %w", err)
	}
	return nil
}

func (c *Client) write(data []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return errNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			current := c.conn == conn
			c.mu.Unlock()
			if !current {
				return
			}
			if err := c.write([]byte("PING")); err != nil {
				c.logger.Debug("ping failed", "error", err)
				return
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		if ctx.Err() != nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closedByUs := c.conn != conn
			if !closedByUs {
				c.conn = nil
				c.isConnected = false
			}
			c.mu.Unlock()

			if closedByUs || ctx.Err() != nil {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("websocket closed normally")
				return
			}

			c.logger.Warn("websocket read error, reconnecting", "error", err)
			go func() {
				if reconnErr := c.connectWithBackoff(ctx); reconnErr != nil && ctx.Err() == nil {
					c.logger.Error("reconnection failed", "error", reconnErr)
				}
			}()
			return
		}

		if bytes.Equal(bytes.TrimSpace(data), []byte("PONG")) {
			continue
		}

		messages, err := Parse(data)
		if err != nil {
			c.logger.Warn("dropping websocket message", "error", err)
			continue
		}

		if c.handler != nil && len(messages) > 0 {
			c.handler(messages)
		}
	}
}

// Close closes the WebSocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.isConnected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected returns whether the client is currently connected.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected
}

package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidPayload     = errors.New("invalid payload")
)

type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc[T any] func(ctx context.Context, conn Conn, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

type ErrorHandler func(ctx context.Context, conn Conn, err error)

type route func(ctx context.Context, conn Conn, payload json.RawMessage) error

type WSRouter struct {
	routes      map[string]route
	middlewares []Middleware
	onError     ErrorHandler
}

func New() *WSRouter {
	return &WSRouter{
		routes:  make(map[string]route),
		onError: func(context.Context, Conn, error) {},
	}
}

func (r *WSRouter) Use(mw ...Middleware) {
	r.middlewares = append(r.middlewares, mw...)
}

// OnError sets the callback for errors returned by handlers. The connection
// keeps being served after it returns.
func (r *WSRouter) OnError(h ErrorHandler) {
	r.onError = h
}

// Handle registers handler for messageType. The payload is decoded into T
// before the middleware chain runs; an absent payload leaves T zero.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	r.routes[messageType] = func(ctx context.Context, conn Conn, raw json.RawMessage) error {
		var payload T
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}
		}

		var h HandlerFunc[any] = func(ctx context.Context, conn Conn, p any) error {
			return handler(ctx, conn, p.(T))
		}
		for i := len(r.middlewares) - 1; i >= 0; i-- {
			h = r.middlewares[i](h)
		}

		return h(ctx, conn, payload)
	}
}

// ServeConn reads messages until the connection fails or ctx is done and
// routes each to its handler.
func (r *WSRouter) ServeConn(ctx context.Context, conn Conn) error {
	defer conn.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		handler, exists := r.routes[msg.Type]
		if !exists {
			r.onError(ctx, conn, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type))
			continue
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)
		if err := handler(msgCtx, conn, msg.Payload); err != nil {
			r.onError(msgCtx, conn, err)
		}
	}
}

type messageTypeCtxKey struct{}

var messageTypeKey messageTypeCtxKey

// MessageType returns the type of the message being handled, or "" outside
// a handler.
func MessageType(ctx context.Context) string {
	messageType, _ := ctx.Value(messageTypeKey).(string)
	return messageType
}

package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/sh1zukey/TheGameOnline-BE/internal/connection"
	"github.com/sh1zukey/TheGameOnline-BE/internal/handler"
	"github.com/sh1zukey/TheGameOnline-BE/internal/snowflake"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: 生产环境应该检查 Origin
		return true
	},
}

// WebSocketServer WebSocket 传输适配器
// 每个连接一个读协程 + 一个写协程；消息是 JSON 文本帧
type WebSocketServer struct {
	addr       string
	connMgr    *connection.Manager
	handler    *handler.Handler
	idNode     *snowflake.Node
	httpServer *http.Server
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// NewWebSocketServer 创建 WebSocket 服务器
func NewWebSocketServer(addr string, connMgr *connection.Manager, h *handler.Handler, idNode *snowflake.Node) *WebSocketServer {
	return &WebSocketServer{
		addr:    addr,
		connMgr: connMgr,
		handler: h,
		idNode:  idNode,
		logger:  slog.Default().With("component", "WebSocketServer"),
	}
}

// Start 启动监听（阻塞直到服务器关闭）
func (s *WebSocketServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Error("WebSocket upgrade failed", "error", err)
			return
		}
		s.wg.Add(1)
		go s.handleConn(ctx, ws)
	})

	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	s.logger.Info("WebSocket server starting", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// handleConn 单连接读循环
func (s *WebSocketServer) handleConn(ctx context.Context, ws *websocket.Conn) {
	defer s.wg.Done()

	c := newWSConn(s.idNode.Generate().Int64(), ws, s.logger)
	s.connMgr.Add(c)
	defer s.handler.HandleDisconnect(ctx, c)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			// 正常关闭与传输错误同等对待：触发断线处理
			return
		}
		s.handler.HandleMessage(ctx, c, data)
	}
}

// Shutdown 关闭服务器并等待连接协程退出
func (s *WebSocketServer) Shutdown(ctx context.Context) {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Warn("WebSocket server shutdown", "error", err)
		}
	}
	s.wg.Wait()
}

// wsConn WebSocket 连接
type wsConn struct {
	id        int64
	ws        *websocket.Conn
	logger    *slog.Logger
	writeChan chan []byte
	closeChan chan struct{}
	closeOnce sync.Once
}

func newWSConn(id int64, ws *websocket.Conn, logger *slog.Logger) *wsConn {
	c := &wsConn{
		id:        id,
		ws:        ws,
		logger:    logger,
		writeChan: make(chan []byte, 256),
		closeChan: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *wsConn) ID() int64 {
	return c.id
}

func (c *wsConn) Send(data []byte) error {
	select {
	case c.writeChan <- data:
		return nil
	case <-c.closeChan:
		return connection.ErrConnectionClosed
	}
}

// writeLoop 串行化所有写操作（gorilla 连接不允许并发写）
// 收到关闭信号后先冲刷已入队的消息，再关闭底层连接：
// 终局广播紧跟在 CloseRoom 之前入队，不冲刷就会丢
func (c *wsConn) writeLoop() {
	defer c.ws.Close()

	for {
		select {
		case data := <-c.writeChan:
			c.writeMessage(data)
		case <-c.closeChan:
			c.flush()
			return
		}
	}
}

// flush 写出关闭前已入队的剩余消息
func (c *wsConn) flush() {
	for {
		select {
		case data := <-c.writeChan:
			c.writeMessage(data)
		default:
			return
		}
	}
}

func (c *wsConn) writeMessage(data []byte) {
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Warn("Failed to write to websocket", "connId", c.id, "error", err)
	}
}

func (c *wsConn) Close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
	})
}

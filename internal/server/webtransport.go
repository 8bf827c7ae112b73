package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/quic-go/webtransport-go"

	"github.com/sh1zukey/TheGameOnline-BE/internal/connection"
	"github.com/sh1zukey/TheGameOnline-BE/internal/handler"
	"github.com/sh1zukey/TheGameOnline-BE/internal/snowflake"
)

// WebTransportServer WebTransport 传输适配器
// 与 WebSocket 适配器共用同一套事件分发器，只负责连接接口
type WebTransportServer struct {
	addr     string
	certFile string
	keyFile  string
	connMgr  *connection.Manager
	handler  *handler.Handler
	idNode   *snowflake.Node
	wtServer *webtransport.Server
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewWebTransportServer 创建 WebTransport 服务器
func NewWebTransportServer(addr, certFile, keyFile string, connMgr *connection.Manager, h *handler.Handler, idNode *snowflake.Node) *WebTransportServer {
	return &WebTransportServer{
		addr:     addr,
		certFile: certFile,
		keyFile:  keyFile,
		connMgr:  connMgr,
		handler:  h,
		idNode:   idNode,
		logger:   slog.Default().With("component", "WebTransportServer"),
	}
}

// Start 启动监听（阻塞直到服务器关闭）
func (s *WebTransportServer) Start(ctx context.Context) error {
	tlsConfig, err := loadTLSConfig(s.certFile, s.keyFile)
	if err != nil {
		return err
	}

	quicConfig := &quic.Config{
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 10 * time.Second,
		EnableDatagrams: true, // WebTransport 需要启用数据报支持
	}

	s.wtServer = &webtransport.Server{
		H3: http3.Server{
			Addr:       s.addr,
			TLSConfig:  tlsConfig,
			QUICConfig: quicConfig,
		},
		CheckOrigin: func(r *http.Request) bool {
			// TODO: 生产环境应该检查 Origin
			return true
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/play", func(w http.ResponseWriter, r *http.Request) {
		session, err := s.wtServer.Upgrade(w, r)
		if err != nil {
			s.logger.Error("WebTransport upgrade failed", "error", err)
			return
		}
		s.wg.Add(1)
		go s.handleSession(ctx, session)
	})
	s.wtServer.H3.Handler = mux

	s.logger.Info("WebTransport server starting", "addr", s.addr)
	return s.wtServer.ListenAndServe()
}

// handleSession 单会话处理
// 客户端用首个双向流承载全部上行消息（换行分隔的 JSON）
func (s *WebTransportServer) handleSession(ctx context.Context, session *webtransport.Session) {
	defer s.wg.Done()

	c := newWTConn(s.idNode.Generate().Int64(), session, s.logger)
	s.connMgr.Add(c)
	defer s.handler.HandleDisconnect(ctx, c)

	stream, err := session.AcceptStream(ctx)
	if err != nil {
		return
	}

	decoder := json.NewDecoder(stream)
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Warn("WebTransport stream read failed", "connId", c.ID(), "error", err)
			}
			return
		}
		s.handler.HandleMessage(ctx, c, raw)
	}
}

// Shutdown 关闭服务器并等待会话协程退出
func (s *WebTransportServer) Shutdown() {
	if s.wtServer != nil {
		_ = s.wtServer.Close()
	}
	s.wg.Wait()
}

// wtConn WebTransport 连接
// 每条下行消息打开一个新的单向流写出
type wtConn struct {
	id        int64
	session   *webtransport.Session
	logger    *slog.Logger
	writeChan chan []byte
	closeChan chan struct{}
	closeOnce sync.Once
}

func newWTConn(id int64, session *webtransport.Session, logger *slog.Logger) *wtConn {
	c := &wtConn{
		id:        id,
		session:   session,
		logger:    logger,
		writeChan: make(chan []byte, 256),
		closeChan: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *wtConn) ID() int64 {
	return c.id
}

func (c *wtConn) Send(data []byte) error {
	select {
	case c.writeChan <- data:
		return nil
	case <-c.closeChan:
		return connection.ErrConnectionClosed
	}
}

// writeLoop 收到关闭信号后先冲刷已入队的消息，再关闭会话：
// 终局广播紧跟在 CloseRoom 之前入队，不冲刷就会丢
func (c *wtConn) writeLoop() {
	defer func() {
		_ = c.session.CloseWithError(0, "connection closed")
	}()

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
func (c *wtConn) flush() {
	for {
		select {
		case data := <-c.writeChan:
			c.writeMessage(data)
		default:
			return
		}
	}
}

func (c *wtConn) writeMessage(data []byte) {
	stream, err := c.session.OpenUniStream()
	if err != nil {
		c.logger.Error("Failed to open stream", "connId", c.id, "error", err)
		return
	}
	if _, err := stream.Write(data); err != nil {
		c.logger.Error("Failed to write to stream", "connId", c.id, "error", err)
	}
	_ = stream.Close()
}

func (c *wtConn) Close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
	})
}

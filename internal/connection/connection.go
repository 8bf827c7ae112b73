package connection

import "errors"

var ErrConnectionClosed = errors.New("connection closed")

// Conn 一个客户端连接
// 由具体传输适配器（WebSocket / WebTransport）实现；
// 引擎侧只依赖该接口，不关心帧格式、心跳和协议协商
type Conn interface {
	// ID 连接标识（进程内唯一）
	ID() int64

	// Send 投递一条下行消息（已序列化）；连接已关闭时返回 ErrConnectionClosed
	Send(data []byte) error

	// Close 关闭连接（幂等）
	Close()
}

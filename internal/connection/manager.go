package connection

import (
	"log/slog"
	"sync"
)

// Manager 管理所有连接及其房间归属
// 通知扇出只面向单个房间的连接集合
type Manager struct {
	connections map[int64]Conn
	roomConns   map[string]map[int64]Conn // roomID -> connID -> Conn
	connRooms   map[int64]string          // connID -> roomID
	mu          sync.RWMutex
	logger      *slog.Logger
}

func NewManager() *Manager {
	return &Manager{
		connections: make(map[int64]Conn),
		roomConns:   make(map[string]map[int64]Conn),
		connRooms:   make(map[int64]string),
		logger:      slog.Default().With("component", "ConnectionManager"),
	}
}

func (m *Manager) Add(conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn.ID()] = conn
}

func (m *Manager) Remove(connID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.connections[connID]; !ok {
		return
	}
	delete(m.connections, connID)

	// 从房间映射中移除
	if roomID, ok := m.connRooms[connID]; ok {
		delete(m.connRooms, connID)
		if conns, ok := m.roomConns[roomID]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(m.roomConns, roomID)
			}
		}
	}
}

func (m *Manager) Get(connID int64) Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connections[connID]
}

// BindRoom 把连接绑定到房间（加入成功后调用）
func (m *Manager) BindRoom(connID int64, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.connections[connID]
	if !ok {
		return
	}

	if _, ok := m.roomConns[roomID]; !ok {
		m.roomConns[roomID] = make(map[int64]Conn)
	}
	m.roomConns[roomID][connID] = conn
	m.connRooms[connID] = roomID
}

// RoomOf 返回连接当前绑定的房间
func (m *Manager) RoomOf(connID int64) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roomID, ok := m.connRooms[connID]
	return roomID, ok
}

// RoomConns 返回房间内的全部连接
func (m *Manager) RoomConns(roomID string) []Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns, ok := m.roomConns[roomID]
	if !ok {
		return nil
	}

	out := make([]Conn, 0, len(conns))
	for _, conn := range conns {
		out = append(out, conn)
	}
	return out
}

// BroadcastRoom 向房间内所有连接投递消息
func (m *Manager) BroadcastRoom(roomID string, data []byte) {
	for _, conn := range m.RoomConns(roomID) {
		if err := conn.Send(data); err != nil {
			m.logger.Warn("Failed to send to connection", "connId", conn.ID(), "error", err)
		}
	}
}

// CloseRoom 强制关闭房间内的所有连接并解除绑定
func (m *Manager) CloseRoom(roomID string) {
	conns := m.RoomConns(roomID)
	for _, conn := range conns {
		conn.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, conn := range conns {
		delete(m.connections, conn.ID())
		delete(m.connRooms, conn.ID())
	}
	delete(m.roomConns, roomID)
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

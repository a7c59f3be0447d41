package dog

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/teslashibe/go-magicdog/internal/log"
)

func TestMarkDownIgnoresStaleSocket(t *testing.T) {
	c := newConn("ws://127.0.0.1:1/ws/robot", log.Discard())
	old, current := new(websocket.Conn), new(websocket.Conn)
	c.ws, c.up = current, true

	c.markDown(old)
	assert.True(t, c.connected(), "old pump marked the new session down")

	c.markDown(current)
	assert.False(t, c.connected())
}

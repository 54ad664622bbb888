package probes

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpoint(t *testing.T) {
	t.Run("可达端点返回成功", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()
		go func() {
			for {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				_ = conn.Close()
			}
		}()

		probe := Endpoint(ln.Addr().String())
		out := probe(context.Background())
		assert.True(t, out.OK)
		assert.Equal(t, ln.Addr().String(), out.Detail["addr"])
	})

	t.Run("不可达端点返回失败", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ln.Addr().String()
		ln.Close() // 释放端口，保证无人监听

		probe := Endpoint(addr)
		out := probe(context.Background())
		assert.False(t, out.OK)
		assert.Contains(t, out.Err, "dial")
	})

	t.Run("上下文取消终止拨号", func(t *testing.T) {
		// 不可路由地址，拨号会挂起直到取消
		probe := Endpoint("10.255.255.1:9999")
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		out := probe(ctx)
		assert.False(t, out.OK)
	})
}

// transport_test.go
/*
versafix — FIX protocol engine
Copyright (C) 2025 Steve Clarke <stephenlclarke@mac.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.

In accordance with section 13 of the AGPL, if you modify this program,
your modified version must prominently offer all users interacting with it
remotely through a computer network an opportunity to receive the source
code of your version.
*/
package transport

import (
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stephenlclarke/versafix/decoder"
	"github.com/stephenlclarke/versafix/dictionary"
	"github.com/stephenlclarke/versafix/fix"
)

func soh(msg string) []byte {
	return []byte(strings.ReplaceAll(msg, "|", "\x01"))
}

func testParser(t *testing.T) *decoder.Parser {
	t.Helper()

	d := dictionary.New()
	for _, f := range []dictionary.Field{
		{Tag: 8, Name: "BeginString", Type: "STRING"},
		{Tag: 9, Name: "BodyLength", Type: "LENGTH"},
		{Tag: 10, Name: "CheckSum", Type: "STRING"},
		{Tag: 34, Name: "MsgSeqNum", Type: "SEQNUM"},
		{Tag: 35, Name: "MsgType", Type: "STRING"},
		{Tag: 49, Name: "SenderCompID", Type: "STRING"},
		{Tag: 52, Name: "SendingTime", Type: "UTCTIMESTAMP"},
		{Tag: 56, Name: "TargetCompID", Type: "STRING"},
		{Tag: 98, Name: "EncryptMethod", Type: "INT"},
		{Tag: 108, Name: "HeartBtInt", Type: "INT"},
	} {
		require.NoError(t, d.AddField(f))
	}

	d.Header = []dictionary.Reference{
		dictionary.FieldRef{Name: "BeginString", Required: true},
		dictionary.FieldRef{Name: "BodyLength", Required: true},
		dictionary.FieldRef{Name: "MsgType", Required: true},
		dictionary.FieldRef{Name: "MsgSeqNum", Required: true},
		dictionary.FieldRef{Name: "SenderCompID", Required: true},
		dictionary.FieldRef{Name: "SendingTime", Required: true},
		dictionary.FieldRef{Name: "TargetCompID", Required: true},
	}
	d.Trailer = []dictionary.Reference{dictionary.FieldRef{Name: "CheckSum", Required: true}}

	require.NoError(t, d.AddMessage(dictionary.MessageDef{
		MsgType: "A",
		Name:    "Logon",
		Elements: []dictionary.Reference{
			dictionary.FieldRef{Name: "EncryptMethod", Required: true},
			dictionary.FieldRef{Name: "HeartBtInt", Required: true},
		},
	}))

	reg := dictionary.NewRegistry()
	reg.AddDictionary("FIX.4.4", d)
	for _, v := range dictionary.StandardVersions() {
		reg.AddVersion(v)
	}

	return decoder.NewParser(reg)
}

var logonBytes = "8=FIX.4.4|9=68|35=A|34=1|49=C|52=20100101-00:00:00.000|56=S|98=0|108=30|10=196|"

// collectHandler gathers delivered messages and disconnect notifications.
type collectHandler struct {
	mu           sync.Mutex
	messages     []*fix.Message
	disconnected bool
}

func (h *collectHandler) OnMessage(_ *Conn, m *fix.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, m)
}

func (h *collectHandler) OnDisconnect(*Conn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnected = true
}

func (h *collectHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

func TestReceiveBufferAppendAndCompact(t *testing.T) {
	var b ReceiveBuffer

	b.Append([]byte("hello"))
	b.Append([]byte("world"))
	assert.Equal(t, "helloworld", string(b.Bytes()))

	b.Compact(5)
	assert.Equal(t, "world", string(b.Bytes()))

	b.Compact(100)
	assert.Equal(t, 0, b.Len())
}

func TestReceiveBufferResyncFindsNextBeginString(t *testing.T) {
	var b ReceiveBuffer
	b.Append(soh("garbage|8=FIX.4.4|9=5|"))

	dropped := b.Resync()

	assert.Equal(t, len("garbage")+1, dropped)
	assert.True(t, strings.HasPrefix(string(b.Bytes()), "8=FIX.4.4"))
}

func TestReceiveBufferResyncClearsWhenNoCandidate(t *testing.T) {
	var b ReceiveBuffer
	b.Append([]byte("no begin string here"))

	dropped := b.Resync()

	assert.Equal(t, len("no begin string here"), dropped)
	assert.Equal(t, 0, b.Len())
}

func TestReceiveBufferResyncAlwaysMakesProgress(t *testing.T) {
	var b ReceiveBuffer
	// A buffer already starting with 8= must still drop something, or a
	// malformed message would wedge the read loop.
	b.Append(soh("8=FIX.4.4|x=1|8=FIX.4.4|9=5|"))

	dropped := b.Resync()

	assert.Greater(t, dropped, 0)
}

func TestConnDeliversFramedMessages(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	conn := newConn(server, testParser(t), decoder.Options{}, zerolog.Nop())
	h := &collectHandler{}

	go conn.readLoop(h)

	// Two messages, written in chunks that split mid-field.
	raw := append(append([]byte(nil), soh(logonBytes)...), soh(logonBytes)...)
	half := len(raw)/2 + 3

	_, err := client.Write(raw[:half])
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = client.Write(raw[half:])
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.count() == 2 },
		time.Second, 5*time.Millisecond)

	client.Close()

	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.disconnected
	}, time.Second, 5*time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, "A", h.messages[0].MsgType())
	assert.Equal(t, "A", h.messages[1].MsgType())
}

func TestConnResynchronizesAfterGarbage(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	conn := newConn(server, testParser(t), decoder.Options{}, zerolog.Nop())
	h := &collectHandler{}

	go conn.readLoop(h)

	payload := append(soh("trash-bytes|"), soh(logonBytes)...)
	_, err := client.Write(payload)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.count() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestAcceptorServesConnections(t *testing.T) {
	h := &collectHandler{}
	a := NewAcceptor("127.0.0.1:0", testParser(t), decoder.Options{},
		func(*Conn) Handler { return h }, zerolog.Nop())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Serve(ln) }()

	nc, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	_, err = nc.Write(soh(logonBytes))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.count() == 1 },
		time.Second, 5*time.Millisecond)

	nc.Close()
	require.NoError(t, a.Close())
	require.NoError(t, <-done)
}

func TestConnectorDialsAndDelivers(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serverConns := make(chan net.Conn, 1)
	go func() {
		nc, err := ln.Accept()
		if err == nil {
			serverConns <- nc
		}
	}()

	h := &collectHandler{}
	connected := make(chan struct{}, 1)

	c := NewConnector(ln.Addr().String(), testParser(t), decoder.Options{},
		func(*Conn) Handler { return h }, zerolog.Nop())
	c.OnConnect = func(*Conn) { connected <- struct{}{} }

	go c.Run()
	defer c.Close()

	select {
	case <-connected:
	case <-time.After(time.Second):
		t.Fatal("connector did not connect")
	}

	server := <-serverConns
	defer server.Close()

	_, err = server.Write(soh(logonBytes))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.count() == 1 },
		time.Second, 5*time.Millisecond)

	// The session writer path goes out through the same connection.
	require.NoError(t, c.Conn().WriteMessage(soh(logonBytes)))

	reply := make([]byte, len(logonBytes))
	server.SetReadDeadline(time.Now().Add(time.Second))
	_, err = server.Read(reply)
	require.NoError(t, err)
}

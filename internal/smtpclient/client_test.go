package smtpclient_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/emailverify/internal/smtpclient"
)

// mockSMTPServer simulates an SMTP server on a net.Pipe connection and
// records every command it receives.
type mockSMTPServer struct {
	banner    string
	responses map[string]string

	mu       sync.Mutex
	commands []string
	done     chan struct{}
}

func newMockServer(banner string, responses map[string]string) *mockSMTPServer {
	return &mockSMTPServer{banner: banner, responses: responses, done: make(chan struct{})}
}

func (m *mockSMTPServer) serve(server net.Conn) {
	defer close(m.done)
	defer func() { _ = server.Close() }()

	_, _ = fmt.Fprintf(server, "%s\r\n", m.banner)

	buf := make([]byte, 4096)
	for {
		n, err := server.Read(buf)
		if err != nil {
			return
		}
		cmd := string(buf[:n])

		m.mu.Lock()
		m.commands = append(m.commands, strings.TrimRight(cmd, "\r\n"))
		m.mu.Unlock()

		if strings.HasPrefix(cmd, "QUIT") {
			_, _ = fmt.Fprintf(server, "221 Bye\r\n")
			return
		}

		for prefix, resp := range m.responses {
			if strings.HasPrefix(cmd, prefix) {
				_, _ = fmt.Fprintf(server, "%s\r\n", resp)
				break
			}
		}
	}
}

func (m *mockSMTPServer) received() []string {
	<-m.done
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

// trackedConn records whether Close was called.
type trackedConn struct {
	net.Conn
	closed atomic.Bool
}

func (c *trackedConn) Close() error {
	c.closed.Store(true)
	return c.Conn.Close()
}

func newClient(t *testing.T, timeout time.Duration, srv *mockSMTPServer) (*smtpclient.Client, *trackedConn, *string) {
	t.Helper()
	var tracked *trackedConn
	var dialed string
	c, err := smtpclient.New(smtpclient.Config{
		HeloDomain: "verify.local",
		MailFrom:   "verify@verify.local",
		Timeout:    timeout,
		Dial: func(_ context.Context, network, address string) (net.Conn, error) {
			dialed = address
			client, server := net.Pipe()
			go srv.serve(server)
			tracked = &trackedConn{Conn: client}
			return tracked, nil
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if tracked != nil {
			assert.True(t, tracked.closed.Load(), "connection must be closed")
		}
	})
	return c, tracked, &dialed
}

var acceptAll = map[string]string{
	"HELO":      "250 mock.smtp",
	"MAIL FROM": "250 OK",
	"RCPT TO":   "250 OK",
}

func TestCheckRCPT_Accepted(t *testing.T) {
	srv := newMockServer("220 mock.smtp ESMTP", acceptAll)
	c, _, dialed := newClient(t, 5*time.Second, srv)

	code, msg, err := c.CheckRCPT(context.Background(), "mx.example.com", "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, 250, code)
	assert.Equal(t, "250 OK", msg)
	assert.Equal(t, "mx.example.com:25", *dialed)

	assert.Equal(t, []string{
		"HELO verify.local",
		"MAIL FROM:<verify@verify.local>",
		"RCPT TO:<user@example.com>",
		"QUIT",
	}, srv.received())
}

func TestCheckRCPT_Rejected(t *testing.T) {
	srv := newMockServer("220 mock.smtp ESMTP", map[string]string{
		"HELO":      "250 mock.smtp",
		"MAIL FROM": "250 OK",
		"RCPT TO":   "550 5.1.1 User not found",
	})
	c, _, _ := newClient(t, 5*time.Second, srv)

	code, msg, err := c.CheckRCPT(context.Background(), "mx.example.com", "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, 550, code)
	assert.Contains(t, msg, "User not found")
	assert.Contains(t, srv.received(), "QUIT")
}

func TestCheckRCPT_MultilineReply(t *testing.T) {
	srv := newMockServer("220-mock.smtp ESMTP\r\n220 ready", map[string]string{
		"HELO":      "250 mock.smtp",
		"MAIL FROM": "250 OK",
		"RCPT TO":   "451-4.7.1 Greylisted\r\n451 4.7.1 try again later",
	})
	c, _, _ := newClient(t, 5*time.Second, srv)

	code, msg, err := c.CheckRCPT(context.Background(), "mx.example.com", "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, 451, code)
	assert.Equal(t, "451-4.7.1 Greylisted | 451 4.7.1 try again later", msg)
}

func TestCheckRCPT_BannerRejected(t *testing.T) {
	srv := newMockServer("554 no service", nil)
	c, _, _ := newClient(t, 5*time.Second, srv)

	_, _, err := c.CheckRCPT(context.Background(), "mx.example.com", "user@example.com")
	var replyErr *smtpclient.ReplyError
	require.ErrorAs(t, err, &replyErr)
	assert.Equal(t, "banner", replyErr.Command)
	assert.Equal(t, 554, replyErr.Code)
	assert.Equal(t, []string{"QUIT"}, srv.received())
}

func TestCheckRCPT_HeloRejected(t *testing.T) {
	srv := newMockServer("220 mock.smtp ESMTP", map[string]string{
		"HELO": "501 bad HELO",
	})
	c, _, _ := newClient(t, 5*time.Second, srv)

	_, _, err := c.CheckRCPT(context.Background(), "mx.example.com", "user@example.com")
	var replyErr *smtpclient.ReplyError
	require.ErrorAs(t, err, &replyErr)
	assert.Equal(t, "HELO", replyErr.Command)
	assert.Equal(t, 501, replyErr.Code)
	assert.NotContains(t, srv.received(), "RCPT TO:<user@example.com>")
}

func TestCheckRCPT_MailFromRejected(t *testing.T) {
	srv := newMockServer("220 mock.smtp ESMTP", map[string]string{
		"HELO":      "250 mock.smtp",
		"MAIL FROM": "553 sender rejected",
	})
	c, _, _ := newClient(t, 5*time.Second, srv)

	_, _, err := c.CheckRCPT(context.Background(), "mx.example.com", "user@example.com")
	var replyErr *smtpclient.ReplyError
	require.ErrorAs(t, err, &replyErr)
	assert.Equal(t, "MAIL FROM", replyErr.Command)
	assert.Equal(t, 553, replyErr.Code)
}

func TestCheckRCPT_DisconnectMidSession(t *testing.T) {
	c, err := smtpclient.New(smtpclient.Config{
		HeloDomain: "verify.local",
		MailFrom:   "verify@verify.local",
		Timeout:    5 * time.Second,
		Dial: func(_ context.Context, _, _ string) (net.Conn, error) {
			client, server := net.Pipe()
			go func() {
				_, _ = fmt.Fprintf(server, "220 mock.smtp ESMTP\r\n")
				buf := make([]byte, 512)
				_, _ = server.Read(buf) // HELO
				_ = server.Close()
			}()
			return client, nil
		},
	})
	require.NoError(t, err)

	_, _, err = c.CheckRCPT(context.Background(), "mx.example.com", "user@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)
}

func TestCheckRCPT_Timeout(t *testing.T) {
	var tracked *trackedConn
	c, err := smtpclient.New(smtpclient.Config{
		HeloDomain: "verify.local",
		MailFrom:   "verify@verify.local",
		Timeout:    50 * time.Millisecond,
		Dial: func(_ context.Context, _, _ string) (net.Conn, error) {
			client, server := net.Pipe()
			// Never sends a banner.
			go func() { _, _ = io.Copy(io.Discard, server) }()
			tracked = &trackedConn{Conn: client}
			return tracked, nil
		},
	})
	require.NoError(t, err)

	start := time.Now()
	_, _, err = c.CheckRCPT(context.Background(), "mx.example.com", "user@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, tracked.closed.Load())
}

func TestCheckRCPT_ContextCancelled(t *testing.T) {
	c, err := smtpclient.New(smtpclient.Config{
		HeloDomain: "verify.local",
		MailFrom:   "verify@verify.local",
		Dial: func(_ context.Context, _, _ string) (net.Conn, error) {
			client, server := net.Pipe()
			go func() { _, _ = io.Copy(io.Discard, server) }()
			return client, nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, _, err = c.CheckRCPT(ctx, "mx.example.com", "user@example.com")
	require.Error(t, err)
}

func TestCheckRCPT_ConnectionError(t *testing.T) {
	c, err := smtpclient.New(smtpclient.Config{
		HeloDomain: "verify.local",
		MailFrom:   "verify@verify.local",
		Port:       "2525",
		Dial: func(_ context.Context, _, _ string) (net.Conn, error) {
			return nil, errors.New("connection refused")
		},
	})
	require.NoError(t, err)

	_, _, err = c.CheckRCPT(context.Background(), "mx.example.com", "user@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mx.example.com:2525")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNew_Proxy(t *testing.T) {
	_, err := smtpclient.New(smtpclient.Config{ProxyURL: "socks5://127.0.0.1:1080"})
	assert.NoError(t, err)

	_, err = smtpclient.New(smtpclient.Config{ProxyURL: "ftp://127.0.0.1:21"})
	assert.Error(t, err)

	_, err = smtpclient.New(smtpclient.Config{ProxyURL: "://bad"})
	assert.Error(t, err)
}

func TestReplyError(t *testing.T) {
	err := &smtpclient.ReplyError{Command: "HELO", Code: 501, Message: "501 bad HELO"}
	assert.Equal(t, "smtpclient: HELO rejected: 501 501 bad HELO", err.Error())
}

func TestCheckRCPT_NullSender(t *testing.T) {
	srv := newMockServer("220 mock.smtp ESMTP", acceptAll)
	c, err := smtpclient.New(smtpclient.Config{
		HeloDomain: "verify.local",
		Timeout:    5 * time.Second,
		Dial: func(_ context.Context, _, _ string) (net.Conn, error) {
			client, server := net.Pipe()
			go srv.serve(server)
			return client, nil
		},
	})
	require.NoError(t, err)

	code, _, err := c.CheckRCPT(context.Background(), "mx.example.com", "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, 250, code)
	assert.Contains(t, srv.received(), "MAIL FROM:<>")
}

func TestCheckRCPT_EmptyHost(t *testing.T) {
	dialed := false
	c, err := smtpclient.New(smtpclient.Config{
		HeloDomain: "verify.local",
		Dial: func(_ context.Context, _, _ string) (net.Conn, error) {
			dialed = true
			return nil, errors.New("unexpected dial")
		},
	})
	require.NoError(t, err)

	for _, host := range []string{"", "."} {
		_, _, err = c.CheckRCPT(context.Background(), host, "user@example.com")
		assert.ErrorIs(t, err, smtpclient.ErrEmptyHost)
	}
	assert.False(t, dialed)
}

func TestCheckRCPT_ReplyLineTooLong(t *testing.T) {
	srv := newMockServer("220 "+strings.Repeat("x", 2000), acceptAll)
	c, _, _ := newClient(t, 5*time.Second, srv)

	start := time.Now()
	_, _, err := c.CheckRCPT(context.Background(), "mx.example.com", "user@example.com")
	assert.ErrorIs(t, err, smtpclient.ErrReplyTooLong)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Empty(t, srv.received(), "no commands after an oversized reply")
}

func TestCheckRCPT_ReplyTooManyLines(t *testing.T) {
	banner := strings.Repeat("220-mock.smtp\r\n", 150) + "220 ready"
	srv := newMockServer(banner, acceptAll)
	c, _, _ := newClient(t, 5*time.Second, srv)

	_, _, err := c.CheckRCPT(context.Background(), "mx.example.com", "user@example.com")
	assert.ErrorIs(t, err, smtpclient.ErrReplyTooLong)
}

func TestCheckRCPT_MaximalReplyLineAccepted(t *testing.T) {
	// 512 octets including CRLF.
	rcpt := "250 " + strings.Repeat("o", 512-4-2)
	srv := newMockServer("220 mock.smtp ESMTP", map[string]string{
		"HELO":      "250 mock.smtp",
		"MAIL FROM": "250 OK",
		"RCPT TO":   rcpt,
	})
	c, _, _ := newClient(t, 5*time.Second, srv)

	code, msg, err := c.CheckRCPT(context.Background(), "mx.example.com", "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, 250, code)
	assert.Equal(t, rcpt, msg)
}

// Package smtpclient runs the short SMTP dialogue used to probe a mailbox:
// banner, HELO, MAIL FROM, RCPT TO, QUIT. Every probe opens its own
// connection and closes it before returning; nothing is shared between calls.
package smtpclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// DialFunc opens a connection to address. It is injectable for testing.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Config configures the SMTP client.
type Config struct {
	HeloDomain string
	MailFrom   string // empty sends the null reverse-path, MAIL FROM:<>
	Port       string
	// Timeout bounds the whole session, from dial to QUIT.
	// Zero leaves the bound to the caller's context.
	Timeout time.Duration
	// ProxyURL routes connections through a proxy, e.g. socks5://127.0.0.1:1080.
	ProxyURL string
	// Dial overrides the dialer (and ProxyURL). Defaults to net.Dialer.DialContext.
	Dial DialFunc
}

// Client probes SMTP servers. It holds no connection state and is safe
// for concurrent use.
type Client struct {
	cfg  Config
	dial DialFunc
}

// Reply limits. RFC 5321 caps a reply line at 512 octets including CRLF.
const (
	maxReplyLine  = 512
	maxReplyLines = 100
)

// ErrReplyTooLong is returned when a reply line or a multi-line reply
// exceeds the limits above.
var ErrReplyTooLong = errors.New("smtpclient: reply too long")

// ErrEmptyHost is returned when there is no host to dial, e.g. for a null MX.
var ErrEmptyHost = errors.New("smtpclient: empty MX host")

// ReplyError is returned when the server answers a step before RCPT TO
// with a non-success reply.
type ReplyError struct {
	Command string
	Code    int
	Message string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("smtpclient: %s rejected: %d %s", e.Command, e.Code, e.Message)
}

// New creates a Client. It fails only if ProxyURL cannot be used.
func New(cfg Config) (*Client, error) {
	if cfg.Port == "" {
		cfg.Port = "25"
	}
	dial := cfg.Dial
	if dial == nil {
		var err error
		dial, err = dialerFor(cfg.ProxyURL)
		if err != nil {
			return nil, err
		}
	}
	return &Client{cfg: cfg, dial: dial}, nil
}

// dialerFor returns a direct dialer, or one going through the proxy at rawURL.
func dialerFor(rawURL string) (DialFunc, error) {
	direct := &net.Dialer{}
	if rawURL == "" {
		return direct.DialContext, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("smtpclient: parse proxy url: %w", err)
	}
	d, err := proxy.FromURL(u, direct)
	if err != nil {
		return nil, fmt.Errorf("smtpclient: proxy %s: %w", u.Redacted(), err)
	}
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return func(_ context.Context, network, address string) (net.Conn, error) {
		return d.Dial(network, address)
	}, nil
}

// CheckRCPT connects to mxHost and asks whether it accepts mail for email.
// It returns the RCPT TO reply code and text. A failure before the RCPT TO
// reply is read is returned as an error (a *ReplyError if the server
// refused an earlier step). The connection is always closed on return.
func (c *Client) CheckRCPT(ctx context.Context, mxHost, email string) (code int, msg string, err error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	if mxHost == "" || mxHost == "." {
		return 0, "", ErrEmptyHost
	}

	address := net.JoinHostPort(mxHost, c.cfg.Port)
	netConn, err := c.dial(ctx, "tcp", address)
	if err != nil {
		return 0, "", fmt.Errorf("connect to %s: %w", address, err)
	}
	defer func() { _ = netConn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		if err := netConn.SetDeadline(deadline); err != nil {
			return 0, "", fmt.Errorf("set deadline: %w", err)
		}
	}
	// Cancellation unblocks any pending read or write.
	stop := context.AfterFunc(ctx, func() { _ = netConn.SetDeadline(time.Now()) })
	defer stop()

	cn := &conn{
		netConn: netConn,
		reader:  bufio.NewReaderSize(netConn, maxReplyLine),
		writer:  bufio.NewWriter(netConn),
	}

	code, msg, err = c.dialogue(cn, email)

	// QUIT only makes sense while the dialogue is still in sync.
	var replyErr *ReplyError
	if err == nil || errors.As(err, &replyErr) {
		sendQuit(cn)
	}
	return code, msg, err
}

// dialogue performs Banner → HELO → MAIL FROM → RCPT TO on a fresh connection.
func (c *Client) dialogue(cn *conn, email string) (int, string, error) {
	code, msg, err := readResponse(cn.reader)
	if err != nil {
		return 0, "", fmt.Errorf("read banner: %w", err)
	}
	if code >= 300 {
		return 0, "", &ReplyError{Command: "banner", Code: code, Message: msg}
	}

	code, msg, err = cn.command(fmt.Sprintf("HELO %s\r\n", c.cfg.HeloDomain))
	if err != nil {
		return 0, "", fmt.Errorf("HELO failed: %w", err)
	}
	if code >= 300 {
		return 0, "", &ReplyError{Command: "HELO", Code: code, Message: msg}
	}

	code, msg, err = cn.command(fmt.Sprintf("MAIL FROM:<%s>\r\n", c.cfg.MailFrom))
	if err != nil {
		return 0, "", fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if code >= 300 {
		return 0, "", &ReplyError{Command: "MAIL FROM", Code: code, Message: msg}
	}

	code, msg, err = cn.command(fmt.Sprintf("RCPT TO:<%s>\r\n", email))
	if err != nil {
		return 0, "", fmt.Errorf("RCPT TO failed: %w", err)
	}
	return code, msg, nil
}

type conn struct {
	netConn net.Conn
	reader  *bufio.Reader
	writer  *bufio.Writer
}

// command sends an SMTP command and reads the response.
func (c *conn) command(cmd string) (int, string, error) {
	if _, err := c.writer.WriteString(cmd); err != nil {
		return 0, "", err
	}
	if err := c.writer.Flush(); err != nil {
		return 0, "", err
	}
	return readResponse(c.reader)
}

// sendQuit sends a QUIT command (best-effort, ignores errors).
func sendQuit(c *conn) {
	_, _ = c.writer.WriteString("QUIT\r\n")
	_ = c.writer.Flush()
}

// readResponse reads a (possibly multi-line) SMTP response.
func readResponse(r *bufio.Reader) (code int, full string, err error) {
	var lines []string
	for {
		if len(lines) == maxReplyLines {
			return 0, "", fmt.Errorf("%w: more than %d lines", ErrReplyTooLong, maxReplyLines)
		}
		raw, readErr := r.ReadSlice('\n')
		if errors.Is(readErr, bufio.ErrBufferFull) {
			return 0, "", fmt.Errorf("%w: line exceeds %d bytes", ErrReplyTooLong, r.Size())
		}
		if readErr != nil {
			return 0, "", fmt.Errorf("read SMTP response: %w", readErr)
		}
		line := strings.TrimRight(string(raw), "\r\n")
		if len(line) < 3 {
			return 0, "", errors.New("SMTP response line too short")
		}
		lines = append(lines, line)
		// If the 4th character is not '-', this is the last line
		if len(line) < 4 || line[3] != '-' {
			break
		}
	}

	lastLine := lines[len(lines)-1]
	if _, err := fmt.Sscanf(lastLine[:3], "%d", &code); err != nil {
		return 0, "", fmt.Errorf("invalid SMTP response code %q: %w", lastLine[:3], err)
	}
	return code, strings.Join(lines, " | "), nil
}

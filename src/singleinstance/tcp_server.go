package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"quick-translate/src/messages"
)

const (
	residentHost  = "127.0.0.1"
	pingRequest   = "PING\n"
	pongResponse  = "PONG\n"
	actionPrefix  = "ACTION "
	successStatus = "SUCCESS\n"
	errorStatus   = "ERROR\n"
	// maxRequestText bounds the text a client may send.
	maxRequestText = 1 << 20
)

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	mu       sync.Mutex
	lis      net.Listener
	incoming chan *tcpConn
	done     chan struct{}
	port     int
}

func newTcpServer() Server {
	return &tcpServer{incoming: make(chan *tcpConn, 8), done: make(chan struct{})}
}

// Start binds ONLY the start port of the configured range. If occupied, fail.
func (s *tcpServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return nil
	}
	start, _ := getPortRange()
	addr := fmt.Sprintf("%s:%d", residentHost, start)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("singleinstance: failed to bind %s: %v", addr, err)
		return err
	}
	s.lis = lis
	s.port = start
	log.Printf("singleinstance: listening on %s", addr)
	go s.acceptLoop(ctx, lis)
	return nil
}

// Port returns the bound port (0 if not started).
func (s *tcpServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *tcpServer) acceptLoop(ctx context.Context, lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		tc, ok := s.handshake(c)
		if !ok {
			continue
		}
		select {
		case s.incoming <- tc:
		case <-ctx.Done():
			_ = c.Close()
			return
		case <-s.done:
			_ = c.Close()
			return
		}
	}
}

// handshake answers PING and parses ACTION requests. It returns false when
// the connection has already been answered and closed.
func (s *tcpServer) handshake(c net.Conn) (*tcpConn, bool) {
	remote := c.RemoteAddr().String()
	_ = c.SetDeadline(time.Now().Add(3 * time.Second))
	br := bufio.NewReader(c)
	bw := bufio.NewWriter(c)
	line, _ := br.ReadString('\n')

	if line == pingRequest {
		log.Printf("singleinstance: PING from %s -> PONG", remote)
		_, _ = bw.WriteString(pongResponse)
		_ = bw.Flush()
		_ = c.Close()
		return nil, false
	}

	req, err := parseRequest(line, br)
	if err != nil {
		log.Printf("singleinstance: bad request from %s: %v", remote, err)
		_, _ = bw.WriteString(errorStatus + err.Error())
		_ = bw.Flush()
		_ = c.Close()
		return nil, false
	}
	_ = c.SetDeadline(time.Time{})
	log.Printf("singleinstance: request from %s action=%s text=%d bytes", remote, req.Kind, len(req.Text))
	return &tcpConn{c: c, r: req, w: bw}, true
}

func parseRequest(line string, body io.Reader) (Request, error) {
	if !strings.HasPrefix(line, actionPrefix) || !strings.HasSuffix(line, "\n") {
		return Request{}, errors.New("expected ACTION request")
	}
	text, err := io.ReadAll(io.LimitReader(body, maxRequestText+1))
	if err != nil {
		return Request{}, fmt.Errorf("reading request text: %w", err)
	}
	if len(text) > maxRequestText {
		return Request{}, errors.New("request text too large")
	}
	name := strings.TrimSpace(strings.TrimPrefix(line, actionPrefix))
	kind, ok := messages.ParseActionKind(name)
	if !ok {
		return Request{}, fmt.Errorf("unknown action %q", name)
	}
	return Request{Kind: kind, Text: string(text)}, nil
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, net.ErrClosed
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		_ = s.lis.Close()
		s.lis = nil
		close(s.done)
	}
	return nil
}

type tcpConn struct {
	c net.Conn
	r Request
	w *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.r }

func (tc *tcpConn) RespondSuccess(text string) error {
	if _, err := tc.w.WriteString(successStatus); err != nil {
		return err
	}
	if len(text) > 0 {
		if _, err := tc.w.WriteString(text); err != nil {
			return err
		}
	}
	return tc.w.Flush()
}

func (tc *tcpConn) RespondError(msg string) error {
	if _, err := tc.w.WriteString(errorStatus + msg); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }

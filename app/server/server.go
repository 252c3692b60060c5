package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/response"
	"github.com/neoblog/neoblog/app/router"
)

var crlfcrlf = []byte("\r\n\r\n")

// MetricsSink receives one record per dispatched request.
type MetricsSink interface {
	Record(latencyMS, throughput, rtt float64, requestCount int64) error
}

// Server owns the accept loop. One goroutine per connection, one request per
// connection: the socket is read until a full message is framed, the response
// is written, the socket closes. No keep-alive, no timeouts, no shutdown
// signal.
type Server struct {
	addr       string
	router     router.Router
	staticRoot string
	metrics    MetricsSink
	log        zerolog.Logger
	requests   atomic.Int64
}

func New(addr string, rt router.Router, staticRoot string, metrics MetricsSink, log zerolog.Logger) *Server {
	return &Server{
		addr:       addr,
		router:     rt,
		staticRoot: staticRoot,
		metrics:    metrics,
		log:        log,
	}
}

func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.addr, err)
	}
	return s.Serve(listener)
}

func (s *Server) Serve(listener net.Listener) error {
	s.log.Info().Str("addr", listener.Addr().String()).Msg("listening")
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error().Err(err).Msg("accept failed")
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	raw, err := readMessage(conn)
	if err != nil {
		s.log.Debug().Err(err).Msg("connection dropped before a full request")
		return
	}
	if len(raw) == 0 {
		return
	}

	req := request.Parse(raw)
	resp := s.dispatch(context.Background(), req)
	resp.SetHeader("Connection", "close")
	if _, err := conn.Write(resp.Bytes()); err != nil {
		s.log.Error().Err(err).Msg("writing response")
		return
	}
	s.log.Info().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.Status).
		Msg("request served")
}

// readMessage buffers one full HTTP message: everything through the
// header/body separator, then Content-Length more body bytes when the
// headers declare any. EOF before the separator yields whatever arrived.
func readMessage(conn net.Conn) ([]byte, error) {
	var buf []byte
	chunk := make([]byte, 4096)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if idx := bytes.Index(buf, crlfcrlf); idx >= 0 {
				declared := declaredContentLength(buf[:idx])
				if declared <= 0 || len(buf)-(idx+len(crlfcrlf)) >= declared {
					return buf, nil
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf, nil
			}
			return nil, err
		}
	}
}

// declaredContentLength scans the raw header section for Content-Length.
// Anything unparseable counts as zero.
func declaredContentLength(headerSection []byte) int {
	for _, line := range strings.Split(string(headerSection), "\r\n") {
		if value, ok := strings.CutPrefix(strings.ToLower(line), "content-length:"); ok {
			length, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return 0
			}
			return length
		}
	}
	return 0
}

// dispatch consults static files first, then the route table. Handler panics
// are converted to a 500 at this boundary, and the latency metric records in
// a defer so no outcome can skip it.
func (s *Server) dispatch(ctx context.Context, req *request.Request) (resp *response.Response) {
	if after, ok := strings.CutPrefix(req.Path, "/static/"); ok {
		if static := s.serveStatic(after); static != nil {
			return static
		}
	}

	handler, params, ok := s.router.Resolve(req.Path, req.Method)
	if !ok {
		return response.NotFound()
	}
	req.Params = params

	start := time.Now()
	defer func() {
		s.recordMetric(time.Since(start))
	}()
	defer func() {
		if recovered := recover(); recovered != nil {
			s.log.Error().
				Interface("panic", recovered).
				Str("method", req.Method).
				Str("path", req.Path).
				Msg("handler panicked")
			resp = response.ServerError(fmt.Sprintf("Internal Server Error: %v", recovered))
		}
	}()

	resp = handler(ctx, req)
	if resp == nil {
		resp = response.ServerError("handler returned no response")
	}
	return resp
}

func (s *Server) recordMetric(elapsed time.Duration) {
	if s.metrics == nil || elapsed < 0 {
		return
	}
	count := s.requests.Add(1)
	latencyMS := float64(elapsed) / float64(time.Millisecond)
	throughput := 0.0
	if seconds := elapsed.Seconds(); seconds > 0 {
		throughput = 1.0 / seconds
	}
	if err := s.metrics.Record(latencyMS, throughput, latencyMS, count); err != nil {
		s.log.Error().Err(err).Msg("recording request metric")
	}
}

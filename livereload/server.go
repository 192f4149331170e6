package livereload

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amonks/assetpipe/internal/styles"
)

const (
	ClientPath = "/__livereload/client.js"
	SocketPath = "/__livereload/ws"
)

//go:embed client.js
var clientJS []byte

var clientTag = []byte(`<script src="` + ClientPath + `"></script>`)

// Server serves a directory over http, with every html page wired up to
// the Hub.
type Server struct {
	addr string
	root string
	hub  *Hub
	log  io.Writer

	ln  net.Listener
	srv *http.Server
}

func NewServer(addr, root string, hub *Hub, log io.Writer) *Server {
	s := &Server{addr: addr, root: root, hub: hub, log: log}
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's routes, for use without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(ClientPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(clientJS)
	})
	mux.Handle(SocketPath, s.hub)
	mux.Handle("/", inject(http.FileServer(http.Dir(s.root))))
	return mux
}

// Listen binds the server's address. It is separate from Serve so that a
// port which is already taken is reported before anything else starts.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

// Serve serves requests until Shutdown. Listen must have been called.
func (s *Server) Serve() error {
	if s.ln == nil {
		return errors.New("server is not listening")
	}
	styles.Fprintf(s.log, styles.Success, "serving %s at http://%s", s.root, s.Addr())
	if err := s.srv.Serve(s.ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown disconnects every page and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.srv.Shutdown(ctx)
}

var bodyEnd = regexp.MustCompile(`(?i)</body\s*>`)

// inject adds the client script to every html page h serves successfully.
func inject(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		iw := &injector{ResponseWriter: w}
		h.ServeHTTP(iw, req)
		iw.finish()
	})
}

// injector passes responses through, except for successful html responses,
// which it holds back until they are complete.
type injector struct {
	http.ResponseWriter
	wroteHeader bool
	buffering   bool
	code        int
	buf         bytes.Buffer
}

func (w *injector) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	ct := w.Header().Get("Content-Type")
	if code == http.StatusOK && strings.HasPrefix(ct, "text/html") {
		w.buffering, w.code = true, code
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *injector) Write(bs []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.buffering {
		return w.buf.Write(bs)
	}
	return w.ResponseWriter.Write(bs)
}

func (w *injector) finish() {
	if !w.buffering {
		return
	}
	page := w.buf.Bytes()
	if loc := lastIndex(page); loc >= 0 {
		page = append(page[:loc:loc], append(append([]byte{}, clientTag...), page[loc:]...)...)
	} else {
		page = append(page, clientTag...)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(page)))
	w.ResponseWriter.WriteHeader(w.code)
	w.ResponseWriter.Write(page)
}

func lastIndex(page []byte) int {
	locs := bodyEnd.FindAllIndex(page, -1)
	if len(locs) == 0 {
		return -1
	}
	return locs[len(locs)-1][0]
}

// Package httpapi serves board screens and archive queries over fasthttp.
package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	svcchess "github.com/park285/immersive-chess/internal/service/chess"
	"github.com/park285/immersive-chess/internal/voxel"
	"github.com/park285/immersive-chess/pkg/chessdto"
)

// Backend is the read side of the chess service.
type Backend interface {
	Screen(ctx context.Context, saveID string) (*chessdto.ScreenState, error)
	ScreenAt(ctx context.Context, pos voxel.BlockPos) (*chessdto.ScreenState, error)
	BoardPNG(ctx context.Context, saveID string) ([]byte, error)
	PGN(ctx context.Context, saveID string) (string, error)
	RecentGames(ctx context.Context, limit int) (*chessdto.RecentGamesResponse, error)
	PlayerProfile(ctx context.Context, name string) (*chessdto.PlayerProfile, error)
}

var _ Backend = (*svcchess.Service)(nil)

type Server struct {
	backend Backend
	srv     *fasthttp.Server
	timeout time.Duration
	logger  *zap.Logger
}

func New(b Backend, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{backend: b, timeout: 5 * time.Second, logger: logger}
	s.srv = &fasthttp.Server{
		Handler:      s.Handle,
		Name:         "immersive-chess",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("http_listen", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

func (s *Server) Serve(ln net.Listener) error { return s.srv.Serve(ln) }

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.ShutdownWithContext(ctx) }

// Handle routes:
//
//	GET /healthz
//	GET /games/recent?limit=N
//	GET /games/{saveID}/screen | board.png | pgn
//	GET /boards/{x,y,z}/screen
//	GET /players/{name}
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, chessdto.DomainError{Code: chessdto.CodeInvalidEvent, Message: "method not allowed"})
		return
	}
	path := string(ctx.Path())
	switch {
	case path == "/healthz":
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
	case path == "/games/recent":
		s.recent(ctx)
	case strings.HasPrefix(path, "/games/"):
		s.game(ctx, strings.TrimPrefix(path, "/games/"))
	case strings.HasPrefix(path, "/boards/"):
		s.board(ctx, strings.TrimPrefix(path, "/boards/"))
	case strings.HasPrefix(path, "/players/"):
		s.player(ctx, strings.TrimPrefix(path, "/players/"))
	default:
		writeError(ctx, fasthttp.StatusNotFound, chessdto.DomainError{Code: chessdto.CodeGameNotFound, Message: "no such route"})
	}
}

func (s *Server) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// game serves a save id path. Save ids contain a slash, so the view is the
// last segment.
func (s *Server) game(ctx *fasthttp.RequestCtx, rest string) {
	i := strings.LastIndexByte(rest, '/')
	if i <= 0 {
		writeError(ctx, fasthttp.StatusNotFound, chessdto.DomainError{Code: chessdto.CodeGameNotFound, Message: "missing view"})
		return
	}
	saveID, view := rest[:i], rest[i+1:]
	rc, cancel := s.requestContext()
	defer cancel()

	switch view {
	case "screen":
		scr, err := s.backend.Screen(rc, saveID)
		if err != nil {
			s.fail(ctx, err)
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, scr)
	case "board.png":
		img, err := s.backend.BoardPNG(rc, saveID)
		if err != nil {
			s.fail(ctx, err)
			return
		}
		ctx.SetContentType("image/png")
		ctx.SetBody(img)
	case "pgn":
		pgn, err := s.backend.PGN(rc, saveID)
		if err != nil {
			s.fail(ctx, err)
			return
		}
		ctx.SetContentType("application/x-chess-pgn")
		ctx.SetBodyString(pgn)
	default:
		writeError(ctx, fasthttp.StatusNotFound, chessdto.DomainError{Code: chessdto.CodeGameNotFound, Message: "unknown view " + view})
	}
}

func (s *Server) board(ctx *fasthttp.RequestCtx, rest string) {
	raw, ok := strings.CutSuffix(rest, "/screen")
	if !ok {
		writeError(ctx, fasthttp.StatusNotFound, chessdto.DomainError{Code: chessdto.CodeNotOnBoard, Message: "unknown view"})
		return
	}
	pos, err := voxel.ParsePos(raw)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, chessdto.DomainError{Code: chessdto.CodeInvalidEvent, Message: err.Error()})
		return
	}
	rc, cancel := s.requestContext()
	defer cancel()
	scr, err := s.backend.ScreenAt(rc, pos)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, scr)
}

func (s *Server) recent(ctx *fasthttp.RequestCtx) {
	limit := 0
	if v := ctx.QueryArgs().Peek("limit"); len(v) > 0 {
		n, err := strconv.Atoi(string(v))
		if err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, chessdto.DomainError{Code: chessdto.CodeInvalidEvent, Message: "limit must be a number"})
			return
		}
		limit = n
	}
	rc, cancel := s.requestContext()
	defer cancel()
	res, err := s.backend.RecentGames(rc, limit)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, res)
}

func (s *Server) player(ctx *fasthttp.RequestCtx, name string) {
	rc, cancel := s.requestContext()
	defer cancel()
	prof, err := s.backend.PlayerProfile(rc, name)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, prof)
}

func (s *Server) fail(ctx *fasthttp.RequestCtx, err error) {
	de := svcchess.ToDomainError(err)
	status := statusOf(de)
	if status >= fasthttp.StatusInternalServerError {
		s.logger.Warn("http_request_failed", zap.ByteString("path", ctx.Path()), zap.Error(err))
	}
	writeError(ctx, status, de)
}

func statusOf(de chessdto.DomainError) int {
	switch de.Code {
	case chessdto.CodeGameNotFound, chessdto.CodeNotOnBoard:
		return fasthttp.StatusNotFound
	case chessdto.CodeInvalidEvent:
		return fasthttp.StatusBadRequest
	case chessdto.CodeUnavailable:
		return fasthttp.StatusServiceUnavailable
	default:
		return fasthttp.StatusInternalServerError
	}
}

func writeError(ctx *fasthttp.RequestCtx, status int, de chessdto.DomainError) {
	writeJSON(ctx, status, map[string]chessdto.DomainError{"error": de})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

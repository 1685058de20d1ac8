package worldlink

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/immersive-chess/internal/obslog"
)

type EventCallback func(e *Event)

type StateCallback func(state StreamState)

type callbackEntry struct {
	id       int
	callback EventCallback
}

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

var ErrNotConnected = errors.New("event stream not connected")

// Stream receives player events from the bridge over a websocket and can
// write command frames back. It reconnects a bounded number of times.
type Stream struct {
	wsURL string

	conn   *websocket.Conn
	connM  sync.RWMutex
	writeM sync.Mutex
	state  StreamState
	stateM sync.RWMutex

	eventCbs []callbackEntry
	stateCbs []stateCallbackEntry
	nextID   int
	cbM      sync.RWMutex

	maxReconnectAttempts int
	reconnectDelay       time.Duration

	pingInterval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc

	headerProvider HeaderProvider
}

func NewStream(wsURL string, maxReconnectAttempts int, reconnectDelay time.Duration) *Stream {
	return &Stream{
		wsURL:                wsURL,
		state:                StreamDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		reconnectDelay:       reconnectDelay,
		pingInterval:         30 * time.Second,
		stopCh:               make(chan struct{}),
	}
}

// SetHeaderProvider injects headers into the handshake.
func (s *Stream) SetHeaderProvider(h HeaderProvider) {
	s.headerProvider = h
}

func (s *Stream) SetPingInterval(d time.Duration) {
	if d > 0 {
		s.pingInterval = d
	}
}

func (s *Stream) State() StreamState {
	s.stateM.RLock()
	defer s.stateM.RUnlock()
	return s.state
}

func (s *Stream) Connect(ctx context.Context) error {
	s.stateM.Lock()
	if s.state == StreamConnected || s.state == StreamConnecting {
		s.stateM.Unlock()
		return nil
	}
	s.stateM.Unlock()

	s.rootCtx, s.rootCancel = context.WithCancel(context.Background())
	s.setState(StreamConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := s.dial(dialCtx)
	if err != nil {
		s.setState(StreamFailed)
		s.scheduleReconnect()
		return err
	}
	s.attach(conn)
	return nil
}

func (s *Stream) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, s.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      s.buildHeaders(),
	})
	return conn, err
}

func (s *Stream) attach(conn *websocket.Conn) {
	s.connM.Lock()
	s.conn = conn
	s.connM.Unlock()
	s.setState(StreamConnected)

	s.wg.Add(2)
	go s.listen(conn)
	go s.pingLoop(conn)
}

func (s *Stream) current() *websocket.Conn {
	s.connM.RLock()
	defer s.connM.RUnlock()
	return s.conn
}

func (s *Stream) listen(conn *websocket.Conn) {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		var frame Frame
		if err := wsjson.Read(s.rootCtx, conn, &frame); err != nil {
			if s.isStopping() || s.current() != conn {
				return
			}
			obslog.L().Warn("world_stream_read_failed", zap.Error(err))
			s.drop(conn, "reconnect")
			return
		}
		if frame.Type != frameEvent || frame.Event == nil {
			obslog.L().Debug("world_stream_frame_ignored", zap.String("type", frame.Type))
			continue
		}

		s.cbM.RLock()
		callbacks := make([]callbackEntry, len(s.eventCbs))
		copy(callbacks, s.eventCbs)
		s.cbM.RUnlock()
		for _, entry := range callbacks {
			if entry.callback != nil {
				entry.callback(frame.Event)
			}
		}
	}
}

func (s *Stream) pingLoop(conn *websocket.Conn) {
	defer s.wg.Done()
	t := time.NewTicker(s.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-s.stopCh:
			return
		case <-t.C:
			if s.current() != conn {
				return
			}
			ctx, cancel := context.WithTimeout(s.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				if s.isStopping() {
					return
				}
				obslog.L().Warn("world_stream_ping_failed", zap.Error(err))
				s.drop(conn, "ping failure")
				return
			}
		}
	}
}

// drop closes conn once and starts reconnecting if it is still current.
func (s *Stream) drop(conn *websocket.Conn, reason string) {
	s.connM.Lock()
	if s.conn != conn {
		s.connM.Unlock()
		return
	}
	s.conn = nil
	s.connM.Unlock()
	_ = conn.Close(websocket.StatusGoingAway, reason)
	s.setState(StreamDisconnected)
	s.scheduleReconnect()
}

func (s *Stream) scheduleReconnect() {
	if s.maxReconnectAttempts <= 0 {
		return
	}
	s.setState(StreamReconnecting)

	go func() {
		for attempt := 1; attempt <= s.maxReconnectAttempts; attempt++ {
			select {
			case <-s.stopCh:
				return
			case <-time.After(s.reconnectDelay + backoffDuration(attempt)):
			}

			dialCtx, cancel := context.WithTimeout(s.rootCtx, 10*time.Second)
			conn, err := s.dial(dialCtx)
			cancel()
			if err != nil {
				obslog.L().Debug("world_stream_reconnect_failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			obslog.L().Info("world_stream_reconnected", zap.Int("attempt", attempt))
			s.attach(conn)
			return
		}
		s.setState(StreamFailed)
	}()
}

// Send writes one frame. Writes are serialized.
func (s *Stream) Send(ctx context.Context, frame Frame) error {
	conn := s.current()
	if conn == nil || s.State() != StreamConnected {
		return ErrNotConnected
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	s.writeM.Lock()
	defer s.writeM.Unlock()
	return wsjson.Write(ctx, conn, frame)
}

func (s *Stream) OnEvent(cb EventCallback) int {
	s.cbM.Lock()
	defer s.cbM.Unlock()
	s.nextID++
	s.eventCbs = append(s.eventCbs, callbackEntry{id: s.nextID, callback: cb})
	return s.nextID
}

func (s *Stream) RemoveEventCallback(id int) {
	s.cbM.Lock()
	defer s.cbM.Unlock()
	for i, cb := range s.eventCbs {
		if cb.id == id {
			s.eventCbs = append(s.eventCbs[:i], s.eventCbs[i+1:]...)
			break
		}
	}
}

func (s *Stream) OnStateChange(cb StateCallback) int {
	s.cbM.Lock()
	defer s.cbM.Unlock()
	s.nextID++
	s.stateCbs = append(s.stateCbs, stateCallbackEntry{id: s.nextID, callback: cb})
	return s.nextID
}

func (s *Stream) RemoveStateCallback(id int) {
	s.cbM.Lock()
	defer s.cbM.Unlock()
	for i, cb := range s.stateCbs {
		if cb.id == id {
			s.stateCbs = append(s.stateCbs[:i], s.stateCbs[i+1:]...)
			break
		}
	}
}

func (s *Stream) setState(state StreamState) {
	s.stateM.Lock()
	s.state = state
	s.stateM.Unlock()

	s.cbM.RLock()
	callbacks := make([]stateCallbackEntry, len(s.stateCbs))
	copy(callbacks, s.stateCbs)
	s.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state)
		}
	}
}

func (s *Stream) Close(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.connM.Lock()
	conn := s.conn
	s.conn = nil
	s.connM.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		if s.rootCancel != nil {
			s.rootCancel()
		}
		s.setState(StreamDisconnected)
		return nil
	}
}

func (s *Stream) isStopping() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *Stream) buildHeaders() http.Header {
	hdr := http.Header{}
	if s.headerProvider == nil {
		return hdr
	}
	for k, v := range s.headerProvider() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}

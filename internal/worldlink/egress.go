package worldlink

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/projector"
)

// Egress delivers queued commands over HTTP or the event stream.
type Egress interface {
	Send(ctx context.Context, cmds []Command) error
}

type transportMode string

const (
	transportHTTP transportMode = "http"
	transportWS   transportMode = "ws"
	transportAuto transportMode = "auto"
)

// NewEgress creates an Egress based on mode. When mode is auto, the stream
// is preferred while connected; on stream failure it falls back to HTTP once.
func NewEgress(mode string, dryrun bool, c *Client, s *Stream, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch transportMode(mode) {
	case transportWS:
		return &wsEgress{s: s, dryrun: dryrun, logger: logger}
	case transportAuto:
		return &autoEgress{ws: &wsEgress{s: s, dryrun: dryrun, logger: logger}, http: &httpEgress{c: c}, logger: logger}
	default:
		return &httpEgress{c: c}
	}
}

// httpEgress maps every command onto its endpoint.
type httpEgress struct{ c *Client }

func (h *httpEgress) Send(ctx context.Context, cmds []Command) error {
	if h == nil || h.c == nil {
		return errors.New("http egress not available")
	}
	var errs []error
	for _, cmd := range cmds {
		if err := h.send(ctx, cmd); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", cmd.Type, err))
		}
	}
	return errors.Join(errs...)
}

func (h *httpEgress) send(ctx context.Context, cmd Command) error {
	switch cmd.Type {
	case CommandMessage:
		return h.c.SendMessage(ctx, cmd.Player, cmd.Text, cmd.Actionbar)
	case CommandBroadcast:
		return h.c.Broadcast(ctx, cmd.Text)
	case CommandSound:
		if cmd.Sound == nil {
			return errors.New("sound command without sound")
		}
		return h.c.PlaySound(ctx, *cmd.Sound)
	case CommandGive:
		return h.c.GiveItems(ctx, cmd.Player, cmd.Items)
	case CommandRemove:
		return h.c.RemoveItem(ctx, cmd.Player, cmd.Slot)
	case CommandDiscard:
		return h.c.DiscardItem(ctx, cmd.Player, cmd.Slot)
	case CommandDrop:
		return h.c.DropItem(ctx, cmd.Player, cmd.Slot)
	default:
		return fmt.Errorf("unknown command type %q", cmd.Type)
	}
}

// wsEgress writes all commands as one frame.
type wsEgress struct {
	s      *Stream
	dryrun bool
	logger *zap.Logger
}

func (w *wsEgress) Send(ctx context.Context, cmds []Command) error {
	if w == nil || w.s == nil {
		return errors.New("ws egress not available")
	}
	if w.dryrun {
		w.logger.Info("ws_egress_dryrun", zap.Int("commands", len(cmds)))
		return nil
	}
	return w.s.Send(ctx, Frame{Type: frameCommands, Commands: cmds})
}

func (w *wsEgress) connected() bool {
	return w != nil && w.s != nil && w.s.State() == StreamConnected
}

// autoEgress prefers the stream if available, with single fallback to HTTP.
type autoEgress struct {
	ws     *wsEgress
	http   *httpEgress
	logger *zap.Logger
}

func (a *autoEgress) Send(ctx context.Context, cmds []Command) error {
	if a.ws.connected() {
		err := a.ws.Send(ctx, cmds)
		if err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.Int("commands", len(cmds)), zap.Error(err))
	}
	return a.http.Send(ctx, cmds)
}

// Outbox collects the notifications and inventory changes of one event.
// It is the projector's Notifier and Inventory; nothing leaves before Flush.
type Outbox struct {
	mu   sync.Mutex
	cmds []Command
}

var (
	_ projector.Notifier  = (*Outbox)(nil)
	_ projector.Inventory = (*Outbox)(nil)
)

func NewOutbox() *Outbox { return &Outbox{} }

func (o *Outbox) push(cmd Command) {
	o.mu.Lock()
	o.cmds = append(o.cmds, cmd)
	o.mu.Unlock()
}

func (o *Outbox) Actionbar(player, text string) {
	o.push(Command{Type: CommandMessage, Player: player, Text: text, Actionbar: true})
}

func (o *Outbox) Chat(player, text string) {
	o.push(Command{Type: CommandMessage, Player: player, Text: text})
}

func (o *Outbox) Broadcast(text string) { o.push(Command{Type: CommandBroadcast, Text: text}) }

func (o *Outbox) PlaySound(s projector.Sound) { o.push(Command{Type: CommandSound, Sound: &s}) }

func (o *Outbox) GiveItems(player string, items []projector.PieceItem) {
	if len(items) == 0 {
		return
	}
	o.push(Command{Type: CommandGive, Player: player, Items: items})
}

func (o *Outbox) TakeItem(player string, item projector.PieceItem) {
	o.push(Command{Type: CommandRemove, Player: player, Slot: item.Slot})
}

func (o *Outbox) DiscardSlot(player string, slot int) {
	o.push(Command{Type: CommandDiscard, Player: player, Slot: slot})
}

func (o *Outbox) DropSlot(player string, slot int) {
	o.push(Command{Type: CommandDrop, Player: player, Slot: slot})
}

// Pending returns a copy of the queued commands.
func (o *Outbox) Pending() []Command {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Command(nil), o.cmds...)
}

// Flush hands the queue to eg and empties it.
func (o *Outbox) Flush(ctx context.Context, eg Egress) error {
	o.mu.Lock()
	cmds := o.cmds
	o.cmds = nil
	o.mu.Unlock()
	if len(cmds) == 0 {
		return nil
	}
	return eg.Send(ctx, cmds)
}

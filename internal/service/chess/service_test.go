package chess

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/immersive-chess/internal/game"
	"github.com/park285/immersive-chess/internal/luminance"
	"github.com/park285/immersive-chess/internal/msgcat"
	"github.com/park285/immersive-chess/internal/piece"
	"github.com/park285/immersive-chess/internal/projector"
	"github.com/park285/immersive-chess/internal/store"
	"github.com/park285/immersive-chess/internal/store/archive"
	"github.com/park285/immersive-chess/internal/store/memstore"
	"github.com/park285/immersive-chess/internal/voxel"
	"github.com/park285/immersive-chess/internal/worldlink"
)

const (
	darkWool  voxel.BlockState = "minecraft:black_wool"
	lightWool voxel.BlockState = "minecraft:white_wool"
	stone     voxel.BlockState = "minecraft:stone"
)

// worldBridge serves region snapshots from an in-memory world and applies
// flushed changes to it.
type worldBridge struct {
	mu      sync.Mutex
	world   *voxel.MemWorld
	applied int
}

func (b *worldBridge) Region(_ context.Context, box voxel.BlockBox) ([]worldlink.PlacedBlock, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []worldlink.PlacedBlock
	for _, p := range box.Positions() {
		if blk := b.world.Block(p); !blk.IsAir() {
			out = append(out, worldlink.PlacedBlock{Pos: p, Block: blk})
		}
	}
	return out, nil
}

func (b *worldBridge) ApplyChanges(_ context.Context, changes []voxel.Change) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range changes {
		switch c.Kind {
		case voxel.ChangeSet:
			_ = b.world.SetBlock(c.Pos, c.Block)
		case voxel.ChangeBreak:
			_ = b.world.BreakBlock(c.Pos, c.Drop)
		}
	}
	b.applied += len(changes)
	return nil
}

func (b *worldBridge) Permissions(context.Context, string, voxel.BlockBox) ([]voxel.BlockPos, error) {
	return nil, nil
}

func (b *worldBridge) block(p voxel.BlockPos) voxel.Block {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.world.Block(p)
}

type captureEgress struct {
	mu   sync.Mutex
	cmds []worldlink.Command
}

func (c *captureEgress) Send(_ context.Context, cmds []worldlink.Command) error {
	c.mu.Lock()
	c.cmds = append(c.cmds, cmds...)
	c.mu.Unlock()
	return nil
}

// lastGive returns the items most recently given to player.
func (c *captureEgress) lastGive(player string) []projector.PieceItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.cmds) - 1; i >= 0; i-- {
		if c.cmds[i].Type == worldlink.CommandGive && c.cmds[i].Player == player {
			return c.cmds[i].Items
		}
	}
	return nil
}

type fixture struct {
	svc     *Service
	store   *memstore.Store
	bridge  *worldBridge
	egress  *captureEgress
	archive *archive.Archive
	pgnDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w := voxel.NewMemWorld()
	for z := -1; z <= 8; z++ {
		for x := -1; x <= 8; x++ {
			p := voxel.Pos(x, 64, z)
			switch {
			case x < 0 || x > 7 || z < 0 || z > 7:
				w.Load(p, voxel.Solid(stone))
			case (x+z)%2 == 0:
				w.Load(p, voxel.Solid(darkWool))
			default:
				w.Load(p, voxel.Solid(lightWool))
			}
		}
	}
	arc, err := archive.Open(context.Background(), "sqlite::memory:")
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { _ = arc.Close() })

	f := &fixture{
		store:   memstore.New(),
		bridge:  &worldBridge{world: w},
		egress:  &captureEgress{},
		archive: arc,
		pgnDir:  t.TempDir(),
	}
	svc, err := NewService(Deps{
		Store:    f.store,
		Archive:  arc,
		Bridge:   f.bridge,
		Egress:   f.egress,
		Messages: msgcat.MustDefault(),
		Mapper:   luminance.FromValues(map[voxel.BlockState]float64{darkWool: 5, lightWool: 95, stone: 50}),
	}, Config{PGNDir: f.pgnDir}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) event(t *testing.T, ev worldlink.Event) bool {
	t.Helper()
	res, err := f.svc.HandleEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("%s by %s: %v", ev.Kind, ev.Player, err)
	}
	return res.Handled
}

func (f *fixture) record(t *testing.T, saveID string) *game.Record {
	t.Helper()
	rec, err := f.store.Load(context.Background(), saveID)
	if err != nil {
		t.Fatalf("load %s: %v", saveID, err)
	}
	return rec
}

// started seats bob as black and alice as white and returns the save id.
func (f *fixture) started(t *testing.T) string {
	t.Helper()
	res, err := f.svc.HandleEvent(context.Background(), worldlink.Event{
		ID: "1", Kind: worldlink.EventUseCase, Player: "bob", Pos: voxel.Pos(2, 64, 1),
	})
	if err != nil || !res.Created || res.SaveID == "" {
		t.Fatalf("board not created: %+v %v", res, err)
	}
	e2 := f.record(t, res.SaveID).Board.Pos(nchess.E2)
	if !f.event(t, worldlink.Event{Kind: worldlink.EventUseCase, Player: "alice", Pos: e2}) {
		t.Fatalf("alice could not join")
	}
	return res.SaveID
}

// move mines src and places the looted piece on dst.
func (f *fixture) move(t *testing.T, saveID, player string, src, dst nchess.Square) {
	t.Helper()
	b := f.record(t, saveID).Board
	if !f.event(t, worldlink.Event{Kind: worldlink.EventBreakStart, Player: player, Pos: b.Pos(src).Up()}) {
		t.Fatalf("%s could not mine %s", player, src)
	}
	loot := f.egress.lastGive(player)
	if len(loot) == 0 {
		t.Fatalf("no loot for %s", player)
	}
	item := loot[len(loot)-1]
	if !f.event(t, worldlink.Event{Kind: worldlink.EventPlace, Player: player, Pos: b.Pos(dst).Up(), Item: &item}) {
		t.Fatalf("%s could not place on %s", player, dst)
	}
}

func TestHandleEventCreatesAndIndexesBoard(t *testing.T) {
	f := newFixture(t)
	saveID := f.started(t)

	rec := f.record(t, saveID)
	if rec.Tags[game.TagBlack] != "bob" || rec.Tags[game.TagWhite] != "alice" {
		t.Fatalf("players = %v", rec.Tags)
	}
	for _, p := range rec.Board.Squares() {
		id, err := f.store.BoardAt(context.Background(), p)
		if err != nil || id != saveID {
			t.Fatalf("square %s indexed as %q (%v)", p, id, err)
		}
	}
	if f.bridge.applied == 0 {
		t.Fatalf("no changes reached the world")
	}
	p, _, ok := piece.FromBlockState(f.bridge.block(rec.Board.Pos(nchess.E1).Up()).State)
	if !ok || p != piece.WhiteKing {
		t.Fatalf("e1 = %v", p)
	}
}

func TestHandleEventMovePersists(t *testing.T) {
	f := newFixture(t)
	saveID := f.started(t)
	f.move(t, saveID, "alice", nchess.E2, nchess.E4)

	rec := f.record(t, saveID)
	if len(rec.Moves) != 1 || rec.Moves[0] != "e2e4" {
		t.Fatalf("moves = %v", rec.Moves)
	}
	p, _, ok := piece.FromBlockState(f.bridge.block(rec.Board.Pos(nchess.E4).Up()).State)
	if !ok || p != piece.WhitePawn {
		t.Fatalf("e4 = %v", p)
	}
	raw, err := os.ReadFile(filepath.Join(f.pgnDir, filepath.FromSlash(saveID)+".pgn"))
	if err != nil {
		t.Fatalf("pgn file: %v", err)
	}
	if !strings.Contains(string(raw), "e4") {
		t.Fatalf("pgn = %s", raw)
	}
	pgn, err := f.svc.PGN(context.Background(), saveID)
	if err != nil || pgn != string(raw) {
		t.Fatalf("PGN() = %q, %v", pgn, err)
	}
}

type failingUpdates struct {
	*memstore.Store
	err error
}

func (s failingUpdates) Update(context.Context, string, func(*game.Record) error) error { return s.err }

func TestHandleEventSaveFailureLeavesWorldAhead(t *testing.T) {
	f := newFixture(t)
	saveID := f.started(t)
	broken := errors.New("store down")
	svc, err := NewService(Deps{
		Store:    failingUpdates{Store: f.store, err: broken},
		Bridge:   f.bridge,
		Egress:   f.egress,
		Messages: msgcat.MustDefault(),
		Mapper:   luminance.FromValues(map[voxel.BlockState]float64{darkWool: 5, lightWool: 95, stone: 50}),
	}, Config{}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	before := f.bridge.applied
	b := f.record(t, saveID).Board
	_, err = svc.HandleEvent(context.Background(), worldlink.Event{Kind: worldlink.EventBreakStart, Player: "alice", Pos: b.Pos(nchess.E2).Up()})
	if !errors.Is(err, broken) {
		t.Fatalf("err = %v", err)
	}
	if f.bridge.applied == before {
		t.Fatalf("world changes were not flushed before the save")
	}
	if rec := f.record(t, saveID); rec.Mined != "" || len(rec.Moves) != 0 {
		t.Fatalf("record changed by failed save: mined=%q moves=%v", rec.Mined, rec.Moves)
	}
}

func TestHandleEventWrongPlayerIgnored(t *testing.T) {
	f := newFixture(t)
	saveID := f.started(t)
	b := f.record(t, saveID).Board
	if f.event(t, worldlink.Event{Kind: worldlink.EventBreakStart, Player: "bob", Pos: b.Pos(nchess.E7).Up()}) {
		t.Fatalf("bob mined out of turn")
	}
	if got := f.egress.lastGive("bob"); got != nil {
		t.Fatalf("bob got loot: %+v", got)
	}
}

func TestHandleEventResignArchives(t *testing.T) {
	f := newFixture(t)
	saveID := f.started(t)
	f.move(t, saveID, "alice", nchess.E2, nchess.E4)

	res, err := f.svc.HandleEvent(context.Background(), worldlink.Event{
		Kind: worldlink.EventButton, Player: "bob", SaveID: saveID, Button: "RESIGN",
	})
	if err != nil || !res.Handled || !res.Finished {
		t.Fatalf("resign = %+v, %v", res, err)
	}
	recent, err := f.svc.RecentGames(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent.Games) != 1 || recent.Games[0].SaveID != saveID || recent.Games[0].Result != "1-0" {
		t.Fatalf("recent = %+v", recent.Games)
	}
	prof, err := f.svc.PlayerProfile(context.Background(), "alice")
	if err != nil || prof.Wins != 1 {
		t.Fatalf("profile = %+v, %v", prof, err)
	}

	// a second finished save does not archive twice
	if f.event(t, worldlink.Event{Kind: worldlink.EventButton, Player: "bob", SaveID: saveID, Button: "RESIGN"}) {
		t.Fatalf("resigned twice")
	}
	recent, _ = f.svc.RecentGames(context.Background(), 10)
	if len(recent.Games) != 1 {
		t.Fatalf("archived %d games", len(recent.Games))
	}
}

func TestStopBoardUnindexes(t *testing.T) {
	f := newFixture(t)
	saveID := f.started(t)
	b := f.record(t, saveID).Board

	if !f.event(t, worldlink.Event{Kind: worldlink.EventButton, Player: "alice", SaveID: saveID, Button: "STOP_BOARD"}) {
		t.Fatalf("stop board refused before the first move")
	}
	if _, err := f.store.BoardAt(context.Background(), b.Pos(nchess.E2)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("board still indexed: %v", err)
	}
	if blk := f.bridge.block(b.Pos(nchess.E2).Up()); !blk.IsAir() {
		t.Fatalf("piece left on e2: %s", blk.State)
	}
}

func TestHandleEventValidation(t *testing.T) {
	f := newFixture(t)
	cases := []worldlink.Event{
		{Kind: worldlink.EventUseCase},
		{Kind: "teleport", Player: "alice"},
		{Kind: worldlink.EventPlace, Player: "alice"},
		{Kind: worldlink.EventButton, Player: "alice", Button: "EXPLODE"},
	}
	for _, ev := range cases {
		if _, err := f.svc.HandleEvent(context.Background(), ev); !errors.Is(err, ErrInvalidEvent) {
			t.Fatalf("%+v: err = %v", ev, err)
		}
	}
	item := projector.PieceItem{Piece: piece.WhitePawn, SaveID: "x"}
	_, err := f.svc.HandleEvent(context.Background(), worldlink.Event{
		Kind: worldlink.EventPlace, Player: "alice", Pos: voxel.Pos(50, 64, 50), Item: &item,
	})
	if !errors.Is(err, ErrNotOnBoard) {
		t.Fatalf("place off board: %v", err)
	}
}

func TestInventoryTickDiscardsStaleItem(t *testing.T) {
	f := newFixture(t)
	item := projector.PieceItem{Piece: piece.WhitePawn, SaveID: "unknown/game", Slot: 4}
	res, err := f.svc.HandleEvent(context.Background(), worldlink.Event{
		Kind: worldlink.EventInventoryTick, Player: "alice", Item: &item,
	})
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !res.Handled || res.Action == projector.TickKeep.String() {
		t.Fatalf("tick = %+v", res)
	}
	if f.bridge.applied != 0 {
		t.Fatalf("inventory tick touched the world")
	}
}

func TestScreen(t *testing.T) {
	f := newFixture(t)
	saveID := f.started(t)
	f.move(t, saveID, "alice", nchess.E2, nchess.E4)

	scr, err := f.svc.Screen(context.Background(), saveID)
	if err != nil {
		t.Fatalf("screen: %v", err)
	}
	if scr.White != "alice" || scr.Black != "bob" || scr.MoveIndex != 2 || len(scr.Moves) != 1 {
		t.Fatalf("screen = %+v", scr)
	}
	if len(scr.BoardImage) == 0 {
		t.Fatalf("board image missing")
	}
	if _, err := f.svc.Screen(context.Background(), "nope/none"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("missing game: %v", err)
	}
	b := f.record(t, saveID).Board
	at, err := f.svc.ScreenAt(context.Background(), b.Pos(nchess.A1))
	if err != nil || at.SaveID != saveID {
		t.Fatalf("screen at = %+v, %v", at, err)
	}
}

func TestSnapshotOptionsMarksCheck(t *testing.T) {
	f := newFixture(t)
	saveID := f.started(t)
	f.move(t, saveID, "alice", nchess.E2, nchess.E4)
	f.move(t, saveID, "bob", nchess.F7, nchess.F6)
	f.move(t, saveID, "alice", nchess.D1, nchess.H5)

	st, _, err := f.svc.restore(context.Background(), saveID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	opts := f.svc.snapshotOptions(st)
	if opts.Check == nil || *opts.Check != nchess.E8 {
		t.Fatalf("check = %v", opts.Check)
	}
	if opts.Highlight == nil || opts.Highlight.From != nchess.D1 || opts.Highlight.To != nchess.H5 {
		t.Fatalf("highlight = %+v", opts.Highlight)
	}
}

func TestArchiveDisabled(t *testing.T) {
	svc, err := NewService(Deps{
		Store:    memstore.New(),
		Bridge:   &worldBridge{world: voxel.NewMemWorld()},
		Egress:   &captureEgress{},
		Messages: msgcat.MustDefault(),
		Mapper:   luminance.FromValues(nil),
	}, Config{}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.RecentGames(context.Background(), 5); !errors.Is(err, ErrArchiveDisabled) {
		t.Fatalf("recent: %v", err)
	}
	if _, err := NewService(Deps{}, Config{}, nil); err == nil {
		t.Fatalf("empty deps accepted")
	}
}

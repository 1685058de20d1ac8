package worldlink

import (
	"github.com/park285/immersive-chess/internal/projector"
	"github.com/park285/immersive-chess/internal/structure"
	"github.com/park285/immersive-chess/internal/voxel"
)

// EventKind names a player interaction reported by the bridge.
type EventKind string

const (
	EventUseCase       EventKind = "use_case"
	EventBreakStart    EventKind = "break_start"
	EventPlace         EventKind = "place"
	EventUseBoard      EventKind = "use_board"
	EventButton        EventKind = "button"
	EventInventoryTick EventKind = "inventory_tick"
)

// Event is one player interaction. Which fields are set depends on Kind:
// Item is the held or placed piece item, Button the pressed screen button,
// Structures the custom pieces of a chess case.
type Event struct {
	ID         string               `json:"id,omitempty"`
	Kind       EventKind            `json:"kind"`
	Player     string               `json:"player"`
	Operator   bool                 `json:"operator,omitempty"`
	Pos        voxel.BlockPos       `json:"pos"`
	SaveID     string               `json:"saveId,omitempty"`
	Item       *projector.PieceItem `json:"item,omitempty"`
	Button     string               `json:"button,omitempty"`
	Structures structure.Map        `json:"structures,omitempty"`
	HoldsPiece bool                 `json:"holdsPiece,omitempty"`
}

// Frame is the envelope of every websocket message in both directions.
type Frame struct {
	Type     string    `json:"type"`
	Event    *Event    `json:"event,omitempty"`
	Commands []Command `json:"commands,omitempty"`
}

const (
	frameEvent    = "event"
	frameCommands = "commands"
)

// CommandType names one outgoing side effect.
type CommandType string

const (
	CommandMessage   CommandType = "message"
	CommandBroadcast CommandType = "broadcast"
	CommandSound     CommandType = "sound"
	CommandGive      CommandType = "give"
	CommandRemove    CommandType = "remove"
	CommandDiscard   CommandType = "discard"
	CommandDrop      CommandType = "drop"
)

// Command is a queued notification or inventory change.
type Command struct {
	Type      CommandType           `json:"type"`
	Player    string                `json:"player,omitempty"`
	Text      string                `json:"text,omitempty"`
	Actionbar bool                  `json:"actionbar,omitempty"`
	Sound     *projector.Sound      `json:"sound,omitempty"`
	Items     []projector.PieceItem `json:"items,omitempty"`
	Slot      int                   `json:"slot,omitempty"`
}

// PlacedBlock is one entry of a region snapshot.
type PlacedBlock struct {
	Pos   voxel.BlockPos `json:"pos"`
	Block voxel.Block    `json:"block"`
}

type RegionRequest struct {
	Box voxel.BlockBox `json:"box"`
}

type RegionResponse struct {
	Blocks []PlacedBlock `json:"blocks"`
}

type ChangesRequest struct {
	Changes []voxel.Change `json:"changes"`
}

type ItemsRequest struct {
	Player string                `json:"player"`
	Items  []projector.PieceItem `json:"items"`
}

type SlotRequest struct {
	Player string `json:"player"`
	Slot   int    `json:"slot"`
}

type MessageRequest struct {
	Player    string `json:"player"`
	Text      string `json:"text"`
	Actionbar bool   `json:"actionbar,omitempty"`
}

type BroadcastRequest struct {
	Text string `json:"text"`
}

type PermissionsRequest struct {
	Player string         `json:"player"`
	Box    voxel.BlockBox `json:"box"`
}

// PermissionsResponse lists the positions the player may not modify.
type PermissionsResponse struct {
	Denied []voxel.BlockPos `json:"denied"`
}

// Status is the bridge's self description.
type Status struct {
	Version string   `json:"version"`
	World   string   `json:"world"`
	Players []string `json:"players"`
}

// StreamState is the connection state of the event stream.
type StreamState string

const (
	StreamDisconnected StreamState = "disconnected"
	StreamConnecting   StreamState = "connecting"
	StreamConnected    StreamState = "connected"
	StreamReconnecting StreamState = "reconnecting"
	StreamFailed       StreamState = "failed"
)

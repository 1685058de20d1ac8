package voxel

// Block is what the world reports for a single position. Appearance is the
// state a viewer sees from above; for disguised blocks it differs from State.
// FullCube and BlockEntity describe the appearance.
type Block struct {
	State       BlockState `json:"state"`
	Appearance  BlockState `json:"appearance,omitempty"`
	FullCube    bool       `json:"fullCube"`
	BlockEntity bool       `json:"blockEntity,omitempty"`
}

var Air = Block{State: AirState}

// Solid builds a plain full cube block.
func Solid(state BlockState) Block {
	return Block{State: state, FullCube: true}
}

// Looks returns the appearance, falling back to the state.
func (b Block) Looks() BlockState {
	if b.Appearance != "" {
		return b.Appearance
	}
	return b.State
}

func (b Block) IsAir() bool { return b.State == "" || b.State.IsAir() }

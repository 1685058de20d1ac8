package voxel

import "sync"

// MemWorld is an in-memory World. Missing positions read as air. Every
// mutation is recorded so callers can forward it elsewhere.
type MemWorld struct {
	mu      sync.RWMutex
	blocks  map[BlockPos]Block
	changes []Change
	// Protected positions cannot be modified by anyone.
	protected map[BlockPos]bool
}

func NewMemWorld() *MemWorld {
	return &MemWorld{blocks: map[BlockPos]Block{}, protected: map[BlockPos]bool{}}
}

func (w *MemWorld) Block(pos BlockPos) Block {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if b, ok := w.blocks[pos]; ok {
		return b
	}
	return Air
}

func (w *MemWorld) SetBlock(pos BlockPos, b Block) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.put(pos, b)
	w.changes = append(w.changes, Change{Kind: ChangeSet, Pos: pos, Block: b})
	return nil
}

func (w *MemWorld) BreakBlock(pos BlockPos, drop bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.blocks, pos)
	w.changes = append(w.changes, Change{Kind: ChangeBreak, Pos: pos, Drop: drop})
	return nil
}

func (w *MemWorld) CanModify(_ string, pos BlockPos) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return !w.protected[pos]
}

// Load stores a block without recording a change.
func (w *MemWorld) Load(pos BlockPos, b Block) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.put(pos, b)
}

func (w *MemWorld) Protect(pos BlockPos) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.protected[pos] = true
}

// Changes returns and clears the recorded mutations.
func (w *MemWorld) Changes() []Change {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.changes
	w.changes = nil
	return out
}

func (w *MemWorld) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.blocks)
}

func (w *MemWorld) put(pos BlockPos, b Block) {
	if b.IsAir() {
		delete(w.blocks, pos)
		return
	}
	w.blocks[pos] = b
}

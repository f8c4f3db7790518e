package workspace

import "github.com/ottobit/simbridge/pkg/log"

// socketSpec describes the placeholder for one repeat range socket.
type socketSpec struct {
	socket    string
	blockType string
	field     string
	value     string
}

var repeatRangeSockets = []socketSpec{
	{SocketVar, BlockTypeVariable, "VAR", "i"},
	{SocketFrom, BlockTypeNumber, "NUM", "1"},
	{SocketTo, BlockTypeNumber, "NUM", "5"},
	{SocketBy, BlockTypeNumber, "NUM", "1"},
}

// ShadowReconciler keeps repeat range blocks from rendering with empty value
// sockets. Any socket left disconnected after a create, paste, or load is
// filled with a deterministic placeholder shadow block.
//
// The create path always disposes and recreates every socket occupant, even
// occupants that already look like placeholders; that guarantees a consistent
// render path at the cost of recreating the node. The load path only fills
// genuinely empty sockets and leaves populated ones untouched. The asymmetry
// is deliberate and is relied on by render workarounds; do not unify the two
// paths.
type ShadowReconciler struct {
	workspace     *Workspace
	reconciling   bool
	pendingPasses int
}

// AttachShadowReconciler wires a reconciler into the workspace's change
// listener. The returned reconciler is only needed by tests.
func AttachShadowReconciler(ws *Workspace) *ShadowReconciler {
	r := &ShadowReconciler{workspace: ws}
	ws.AddChangeListener(r.handleEvent)
	return r
}

func (r *ShadowReconciler) handleEvent(event Event) {
	switch ev := event.(type) {
	case BlockCreateEvent:
		if ev.BlockType != BlockTypeRepeatRange {
			return
		}
		block := r.workspace.BlockByID(ev.BlockID)
		if block == nil {
			return
		}
		r.scheduleRestore(block, true)

	case FinishedLoadingEvent:
		for _, block := range r.workspace.BlocksOfType(BlockTypeRepeatRange) {
			if hasEmptySocket(block) {
				r.scheduleRestore(block, false)
			}
		}

	case BlockChangeEvent:
		block := r.workspace.BlockByID(ev.BlockID)
		if block == nil || block.Type() != BlockTypeRepeatRange {
			return
		}
		if hasEmptySocket(block) {
			r.scheduleRestore(block, false)
		}
	}
}

// scheduleRestore defers the reconciliation pass to the next tick so the
// block finishes its own initialization first. Notifications stay suppressed
// for the whole pass; the re-entrancy guard keeps overlapping passes (rapid
// multi-block paste) from re-enabling them early.
func (r *ShadowReconciler) scheduleRestore(block *Block, force bool) {
	if !r.reconciling {
		r.reconciling = true
		r.workspace.DisableEvents()
	}
	r.pendingPasses++

	r.workspace.ScheduleDeferred(func() {
		r.restore(block, force)
	})
	r.workspace.ScheduleDeferred(func() {
		r.pendingPasses--
		if r.pendingPasses == 0 && r.reconciling {
			r.workspace.EnableEvents()
			r.reconciling = false
			r.workspace.Render()
		}
	})
}

// restore fills the four sockets. With force set, existing occupants are
// unconditionally disposed and recreated; without it, occupied sockets are
// skipped.
func (r *ShadowReconciler) restore(block *Block, force bool) {
	if block.disposed {
		return
	}

	for _, spec := range repeatRangeSockets {
		input := block.Input(spec.socket)
		if input == nil {
			continue
		}

		existing := input.TargetBlock()
		if existing != nil {
			if !force {
				continue
			}
			input.Disconnect()
			existing.Dispose()
		}

		shadow := r.workspace.NewBlock(spec.blockType)
		shadow.SetShadow(true)
		if err := shadow.SetField(spec.field, spec.value); err != nil {
			log.Warn("Failed to set placeholder field: %v", err)
		}
		shadow.Render()
		if err := input.Connect(shadow); err != nil {
			log.Warn("Failed to connect placeholder: %v", err)
			shadow.Dispose()
		}
	}

	block.Render()
}

func hasEmptySocket(block *Block) bool {
	for _, spec := range repeatRangeSockets {
		if input := block.Input(spec.socket); input != nil && input.TargetBlock() == nil {
			return true
		}
	}
	return false
}

package workspace

import (
	"fmt"

	"github.com/google/uuid"
)

// Workspace holds a visual program graph. It follows the cooperative,
// single-goroutine model of the editor event loop: mutations and event
// dispatch are not safe for concurrent use from multiple goroutines.
type Workspace struct {
	blocks    map[string]*Block
	order     []string
	listeners []Listener

	// suppressDepth batches mutations: while positive, change
	// notifications and block creation events are not fired.
	suppressDepth int
	deferred      []func()
	renders       int
}

func NewWorkspace() *Workspace {
	return &Workspace{
		blocks: make(map[string]*Block),
	}
}

// NewBlock creates and registers a block of the given type, applying its
// registered definition (fields and input sockets). Unknown types get a bare
// block with no sockets.
func (w *Workspace) NewBlock(blockType string) *Block {
	block := &Block{
		id:        uuid.NewString(),
		blockType: blockType,
		workspace: w,
		fields:    make(map[string]string),
		inputs:    make(map[string]*Input),
	}

	if def, ok := Definitions[blockType]; ok {
		for name, value := range def.Fields {
			block.fields[name] = value
		}
		for _, name := range def.Inputs {
			block.addInput(name)
		}
		for _, name := range def.StatementInputs {
			input := block.addInput(name)
			input.statement = true
		}
	}

	w.blocks[block.id] = block
	w.order = append(w.order, block.id)
	w.fire(BlockCreateEvent{BlockID: block.id, BlockType: blockType})
	return block
}

func (w *Workspace) BlockByID(id string) *Block {
	return w.blocks[id]
}

// AllBlocks returns every block in creation order, shadows included.
func (w *Workspace) AllBlocks() []*Block {
	blocks := make([]*Block, 0, len(w.order))
	for _, id := range w.order {
		if block, ok := w.blocks[id]; ok {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// BlocksOfType returns every block of the given type in creation order.
func (w *Workspace) BlocksOfType(blockType string) []*Block {
	var blocks []*Block
	for _, block := range w.AllBlocks() {
		if block.blockType == blockType {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// AddChangeListener registers a listener for workspace events.
func (w *Workspace) AddChangeListener(listener Listener) {
	w.listeners = append(w.listeners, listener)
}

// DisableEvents opens a suppression scope; scopes nest.
func (w *Workspace) DisableEvents() {
	w.suppressDepth++
}

// EnableEvents closes a suppression scope.
func (w *Workspace) EnableEvents() {
	if w.suppressDepth > 0 {
		w.suppressDepth--
	}
}

// EventsEnabled reports whether notifications currently fire.
func (w *Workspace) EventsEnabled() bool {
	return w.suppressDepth == 0
}

// WithEventsSuppressed runs fn inside a suppression scope.
func (w *Workspace) WithEventsSuppressed(fn func()) {
	w.DisableEvents()
	defer w.EnableEvents()
	fn()
}

func (w *Workspace) fire(event Event) {
	if w.suppressDepth > 0 {
		return
	}
	for _, listener := range w.listeners {
		listener(event)
	}
}

// ScheduleDeferred queues fn for the next Flush, the workspace's "next tick".
func (w *Workspace) ScheduleDeferred(fn func()) {
	w.deferred = append(w.deferred, fn)
}

// Flush runs deferred work until the queue is empty, including work scheduled
// by the tasks themselves.
func (w *Workspace) Flush() {
	for len(w.deferred) > 0 {
		tasks := w.deferred
		w.deferred = nil
		for _, task := range tasks {
			task()
		}
	}
}

// FinishLoading signals that a bulk load or paste has completed.
func (w *Workspace) FinishLoading() {
	w.fire(FinishedLoadingEvent{})
}

// Render marks one workspace-level re-render.
func (w *Workspace) Render() {
	w.renders++
}

// Renders returns the workspace-level render count.
func (w *Workspace) Renders() int {
	return w.renders
}

func (w *Workspace) remove(block *Block) {
	delete(w.blocks, block.id)
	for i, id := range w.order {
		if id == block.id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// Block is one node in the program graph.
type Block struct {
	id        string
	blockType string
	shadow    bool
	disposed  bool
	workspace *Workspace
	fields    map[string]string
	inputs    map[string]*Input
	inputList []string

	parent *Input
	next   *Block
	prev   *Block

	renders int
}

func (b *Block) ID() string {
	return b.id
}

func (b *Block) Type() string {
	return b.blockType
}

// IsShadow reports whether the block is a generated placeholder.
func (b *Block) IsShadow() bool {
	return b.shadow
}

func (b *Block) SetShadow(shadow bool) {
	b.shadow = shadow
}

func (b *Block) SetField(name, value string) error {
	if _, ok := b.fields[name]; !ok {
		return fmt.Errorf("block %s has no field %s", b.blockType, name)
	}
	b.fields[name] = value
	b.workspace.fire(BlockChangeEvent{BlockID: b.id})
	return nil
}

func (b *Block) Field(name string) string {
	return b.fields[name]
}

func (b *Block) addInput(name string) *Input {
	input := &Input{name: name, owner: b}
	b.inputs[name] = input
	b.inputList = append(b.inputList, name)
	return input
}

func (b *Block) Input(name string) *Input {
	return b.inputs[name]
}

// Next returns the block connected below this one in a statement chain.
func (b *Block) Next() *Block {
	return b.next
}

// SetNext links a block below this one in a statement chain.
func (b *Block) SetNext(next *Block) {
	if b.next != nil {
		b.next.prev = nil
	}
	b.next = next
	if next != nil {
		next.prev = b
	}
}

// Render marks one block-level re-render.
func (b *Block) Render() {
	b.renders++
}

// Renders returns the block-level render count.
func (b *Block) Renders() int {
	return b.renders
}

// Dispose removes the block and its descendants from the workspace,
// detaching it from any parent socket first.
func (b *Block) Dispose() {
	if b.disposed {
		return
	}
	b.disposed = true

	if b.parent != nil {
		b.parent.target = nil
		b.parent = nil
	}
	if b.prev != nil {
		b.prev.next = nil
		b.prev = nil
	}
	for _, name := range b.inputList {
		input := b.inputs[name]
		if input.target != nil {
			child := input.target
			input.target = nil
			child.parent = nil
			child.Dispose()
		}
	}
	if b.next != nil {
		next := b.next
		b.next = nil
		next.prev = nil
		next.Dispose()
	}

	b.workspace.remove(b)
}

// Input is a named socket that holds at most one child block.
type Input struct {
	name      string
	owner     *Block
	target    *Block
	statement bool
}

func (i *Input) Name() string {
	return i.name
}

// TargetBlock returns the connected child, or nil for an empty socket.
func (i *Input) TargetBlock() *Block {
	return i.target
}

// Connect plugs a block into the socket. The socket must be empty and the
// child unparented.
func (i *Input) Connect(child *Block) error {
	if i.target != nil {
		return fmt.Errorf("input %s is already connected", i.name)
	}
	if child.parent != nil {
		return fmt.Errorf("block %s is already connected", child.id)
	}
	i.target = child
	child.parent = i
	i.owner.workspace.fire(BlockChangeEvent{BlockID: i.owner.id})
	return nil
}

// Disconnect empties the socket, leaving the child in the workspace.
func (i *Input) Disconnect() {
	if i.target == nil {
		return
	}
	i.target.parent = nil
	i.target = nil
	i.owner.workspace.fire(BlockChangeEvent{BlockID: i.owner.id})
}

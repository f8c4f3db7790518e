package workspace

import (
	"encoding/json"
	"fmt"
)

// blockJSON is the serialized form of one block and its subtree.
type blockJSON struct {
	Type   string                `json:"type"`
	Shadow bool                  `json:"shadow,omitempty"`
	Fields map[string]string     `json:"fields,omitempty"`
	Inputs map[string]*blockJSON `json:"inputs,omitempty"`
	Next   *blockJSON            `json:"next,omitempty"`
}

type workspaceJSON struct {
	Blocks []*blockJSON `json:"blocks"`
}

// MarshalJSON serializes the top-level blocks and their subtrees.
func (w *Workspace) MarshalJSON() ([]byte, error) {
	doc := workspaceJSON{}
	for _, block := range w.AllBlocks() {
		if block.parent != nil || block.prev != nil {
			continue
		}
		doc.Blocks = append(doc.Blocks, encodeBlock(block))
	}
	return json.Marshal(doc)
}

func encodeBlock(block *Block) *blockJSON {
	node := &blockJSON{
		Type:   block.blockType,
		Shadow: block.shadow,
	}
	if len(block.fields) > 0 {
		node.Fields = make(map[string]string, len(block.fields))
		for name, value := range block.fields {
			node.Fields[name] = value
		}
	}
	for _, name := range block.inputList {
		input := block.inputs[name]
		if input.target == nil {
			continue
		}
		if node.Inputs == nil {
			node.Inputs = make(map[string]*blockJSON)
		}
		node.Inputs[name] = encodeBlock(input.target)
	}
	if block.next != nil {
		node.Next = encodeBlock(block.next)
	}
	return node
}

// LoadJSON rebuilds a workspace from serialized form. Construction is
// silent; callers attach listeners and then call FinishLoading, the path
// bulk paste and project load share.
func LoadJSON(data []byte) (*Workspace, error) {
	doc := workspaceJSON{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse workspace: %v", err)
	}

	w := NewWorkspace()
	w.WithEventsSuppressed(func() {
		for _, node := range doc.Blocks {
			decodeBlock(w, node)
		}
	})
	return w, nil
}

func decodeBlock(w *Workspace, node *blockJSON) *Block {
	block := w.NewBlock(node.Type)
	block.shadow = node.Shadow
	for name, value := range node.Fields {
		if _, ok := block.fields[name]; ok {
			block.fields[name] = value
		}
	}
	for name, childNode := range node.Inputs {
		input := block.Input(name)
		if input == nil {
			continue
		}
		child := decodeBlock(w, childNode)
		if err := input.Connect(child); err != nil {
			child.Dispose()
		}
	}
	if node.Next != nil {
		block.SetNext(decodeBlock(w, node.Next))
	}
	return block
}

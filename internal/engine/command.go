package engine

import "github.com/roach88/canvas/internal/ir"

// CommandKind names a session command.
type CommandKind string

const (
	CommandUndo            CommandKind = "undo"
	CommandRedo            CommandKind = "redo"
	CommandAddNode         CommandKind = "add_node"
	CommandCommitContent   CommandKind = "commit_content"
	CommandDeleteSelection CommandKind = "delete_selection"
	CommandSetViewport     CommandKind = "set_viewport"
	CommandSelect          CommandKind = "select"
	CommandRemount         CommandKind = "remount"
	CommandFlush           CommandKind = "flush"
)

// Command is a non-pointer action: toolbar buttons, keyboard shortcuts and
// host lifecycle. Only the fields its Kind needs are read.
type Command struct {
	Kind CommandKind

	// AddNode.
	Node *ir.NodeInput

	// CommitContent edits NodeID; Select replaces the selection with IDs.
	NodeID  string
	Content *ir.ContentPatch
	IDs     []string

	// SetViewport.
	Viewport *ir.ViewportPatch
}

// historyLabel is the undo label recorded for a command.
func (c Command) historyLabel() string {
	switch c.Kind {
	case CommandAddNode:
		return "create"
	case CommandCommitContent:
		return "edit content"
	case CommandDeleteSelection:
		return "delete"
	case CommandSetViewport:
		return "viewport"
	default:
		return string(c.Kind)
	}
}

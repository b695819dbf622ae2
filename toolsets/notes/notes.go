// Package notes provides the notes_manager toolset: a per-agent notebook of
// titled notes the agent can add to, list, and prune.
package notes

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/tool"
)

// ToolsetID is the id agents use to address the notes toolset.
const ToolsetID = "notes_manager"

// Note is a single titled note.
type Note struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type addNoteArgs struct {
	Title   string `json:"title" description:"The title of the note."`
	Content string `json:"content" description:"The content of the note."`
}

type deleteNoteArgs struct {
	Index int `json:"index" description:"The index of the note, as shown by get_notes."`
}

// Toolset stores notes keyed by the calling agent's id, so one instance can
// be shared between agents without leaking notes across them.
type Toolset struct {
	*tool.FuncToolset

	mu    sync.Mutex
	notes map[string][]Note
}

// New creates an empty notes toolset.
func New() *Toolset {
	t := &Toolset{notes: make(map[string][]Note)}
	t.FuncToolset = tool.NewFuncToolset(
		core.ToolsetDetails{ToolsetID: ToolsetID, Name: "Notes Manager", Description: "Manages notes"},
		tool.NewSpecFromStruct("add_note", "Add a note to the notes manager.", addNoteArgs{}, t.addNote),
		tool.NewSpecFromStruct("get_notes", "Get all notes from the notes manager.", struct{}{}, t.getNotes),
		tool.NewSpecFromStruct("delete_note", "Delete a note from the notes manager.", deleteNoteArgs{}, t.deleteNote),
	)
	return t
}

// Notes returns a copy of the notes stored for agentID.
func (t *Toolset) Notes(agentID string) []Note {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Note(nil), t.notes[agentID]...)
}

func (t *Toolset) addNote(_ context.Context, caller tool.Caller, args map[string]any) (any, error) {
	title, err := tool.StringArg(args, "title")
	if err != nil {
		return nil, err
	}
	content, err := tool.StringArg(args, "content")
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.notes[caller.ID()] = append(t.notes[caller.ID()], Note{Title: title, Content: content})
	t.mu.Unlock()

	return fmt.Sprintf("Note %s added", title), nil
}

func (t *Toolset) getNotes(_ context.Context, caller tool.Caller, _ map[string]any) (any, error) {
	notes := t.Notes(caller.ID())

	var b strings.Builder
	b.WriteString("Notes:\n")
	if len(notes) == 0 {
		b.WriteString("    [No notes found]")
		return b.String(), nil
	}
	for i, n := range notes {
		fmt.Fprintf(&b, "    [%d] %s\n%s\n\n", i+1, n.Title, n.Content)
	}
	return b.String(), nil
}

// deleteNote removes a note by the one-based index get_notes displays.
func (t *Toolset) deleteNote(_ context.Context, caller tool.Caller, args map[string]any) (any, error) {
	index, err := tool.IntArg(args, "index")
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	notes := t.notes[caller.ID()]
	if index < 1 || index > len(notes) {
		return nil, fmt.Errorf("note %d not found", index)
	}
	t.notes[caller.ID()] = append(notes[:index-1:index-1], notes[index:]...)
	return fmt.Sprintf("Note %d deleted", index), nil
}

var _ tool.Toolset = (*Toolset)(nil)

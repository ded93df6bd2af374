// Package snapshot persists and restores the container tree across a
// `--restart` re-exec, spec §6's "optional JSON tree snapshot written to a
// temp path on restart, consumed via -L by the new process".
//
// There is no teacher equivalent — funkycode-marwind never restarts in
// place — so this package follows spec §6/§8 directly, reusing
// internal/ipc's NodeJSON shape (the round-trip test in spec §8 compares
// two GET_TREE-equivalent serializations) rather than inventing a second
// wire format.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/patrislav/marwind/internal/ipc"
	"github.com/patrislav/marwind/internal/wmcontainer"
)

// Snapshot is the on-disk shape: the dumped tree plus the back-and-forth
// name, which a restart can't recover from the X server alone. Marks are
// not kept.
type Snapshot struct {
	Tree              *ipc.NodeJSON `json:"tree"`
	PrevWorkspaceName string        `json:"prev_workspace_name,omitempty"`
}

// Write serializes root to path as a restart snapshot (spec §6).
func Write(path string, root *wmcontainer.Container, prevWorkspaceName string) error {
	snap := Snapshot{Tree: ipc.DumpTree(root), PrevWorkspaceName: prevWorkspaceName}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return nil
}

// Read loads and validates a snapshot written by Write. A missing or
// malformed file yields the underlying error unwrapped; the caller in
// cmd/marwind logs it as wmerr.ErrRestoreFailure and starts without the
// snapshot (spec §7's RestoreFailure).
func Read(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap.Tree == nil {
		return nil, fmt.Errorf("snapshot: %s has no tree", path)
	}
	return &snap, nil
}

// WorkspaceShape is the subset of a snapshotted workspace restart actually
// restores: its name, number and output. Window content itself is
// re-adopted live as the X server redelivers MapRequest for every
// surviving client (spec §8's round-trip property compares serializations
// "modulo X11 ids", not literal container identity).
type WorkspaceShape struct {
	Name       string
	Num        int
	OutputName string
}

// Workspaces walks a snapshot's tree and extracts every workspace's shape,
// in the output/content/workspace nesting order DumpTree produced it.
func (s *Snapshot) Workspaces() []WorkspaceShape {
	var out []WorkspaceShape
	var walk func(node *ipc.NodeJSON, outputName string)
	walk = func(node *ipc.NodeJSON, outputName string) {
		current := outputName
		if node.Type == int(wmcontainer.KindOutput) {
			current = node.Name
		}
		if node.Type == int(wmcontainer.KindWorkspace) {
			out = append(out, WorkspaceShape{Name: node.Name, Num: node.Num, OutputName: current})
		}
		for _, child := range node.Nodes {
			walk(child, current)
		}
	}
	walk(s.Tree, "")
	return out
}

// Package filetree turns the flat, untrusted Metadata vector the central
// directory parser produces into a validated hierarchical namespace,
// grounded on elliotnunn-BeHierarchic/internal/fskeleton/fskeleton.go's
// File/FS shape (name, synthesized parents, lookup) but built from a
// Metadata slice, whose paths it validates, instead of a live filesystem walk.
package filetree

import (
	"fmt"
	"iter"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/parazip/parazip/internal/archiveerr"
	"github.com/parazip/parazip/internal/centraldir"
)

// Node is a directory or file leaf in the tree.
type Node struct {
	name     string
	isDir    bool
	metaIdx  int // index into Tree.metas; -1 for a purely synthesized directory
	children []*Node
	byName   *htab
}

// IsDir reports whether n is a directory.
func (n *Node) IsDir() bool { return n.isDir }

// Name is the node's own path component (not its full path).
func (n *Node) Name() string { return n.name }

// Metadata returns the node's backing Metadata record and true, or
// (zero, false) for a synthesized directory with no explicit archive entry.
func (n *Node) Metadata(t *Tree) (centraldir.Metadata, bool) {
	if n.metaIdx < 0 {
		return centraldir.Metadata{}, false
	}
	return t.metas[n.metaIdx], true
}

// Tree is the validated hierarchical namespace built from a Metadata slice.
type Tree struct {
	root  *Node
	metas []centraldir.Metadata
}

// New validates every path in metas and builds the tree. Path validation
// and uniqueness are FileTree preconditions, not archive-parse
// preconditions: the raw parser tolerates duplicates and bad paths, and
// this constructor is where they become errors.
func New(metas []centraldir.Metadata) (*Tree, error) {
	t := &Tree{
		root:  newNode("", true, -1),
		metas: metas,
	}
	for i, m := range metas {
		components, isDirPath, err := splitPath(m.Path)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%q): %w", i, m.Path, err)
		}
		leafIsDir := m.IsDirectory || isDirPath
		if err := t.insert(components, leafIsDir, i); err != nil {
			return nil, fmt.Errorf("entry %d (%q): %w", i, m.Path, err)
		}
	}
	return t, nil
}

func newNode(name string, isDir bool, metaIdx int) *Node {
	n := &Node{name: name, isDir: isDir, metaIdx: metaIdx}
	if isDir {
		n.byName = newHtab()
	}
	return n
}

// splitPath validates path per spec §4.6 and returns its components plus
// whether the raw path denoted a directory (trailing slash).
func splitPath(path string) ([]string, bool, error) {
	if path == "" {
		return nil, false, fmt.Errorf("%w: empty path", archiveerr.ErrInvalidName)
	}
	if strings.IndexByte(path, 0) >= 0 {
		return nil, false, fmt.Errorf("%w: embedded NUL", archiveerr.ErrInvalidName)
	}
	if strings.HasPrefix(path, "/") {
		return nil, false, fmt.Errorf("%w: absolute path", archiveerr.ErrInvalidName)
	}

	isDir := strings.HasSuffix(path, "/")
	trimmed := strings.TrimSuffix(path, "/")
	if trimmed == "" {
		return nil, false, fmt.Errorf("%w: empty path", archiveerr.ErrInvalidName)
	}

	parts := strings.Split(trimmed, "/")
	for _, p := range parts {
		switch p {
		case "":
			return nil, false, fmt.Errorf("%w: empty path component", archiveerr.ErrInvalidName)
		case ".", "..":
			return nil, false, fmt.Errorf("%w: %q component not allowed", archiveerr.ErrInvalidName, p)
		}
		// Backslash is a literal character here, never a separator.
	}
	return parts, isDir, nil
}

func (t *Tree) insert(components []string, leafIsDir bool, metaIdx int) error {
	cur := t.root
	for i, name := range components {
		last := i == len(components)-1
		existing, ok := cur.byName.get(name)
		if !ok {
			isDir := !last || leafIsDir
			idx := -1
			if last {
				idx = metaIdx
			}
			child := newNode(name, isDir, idx)
			cur.byName.put(name, child)
			cur.children = append(cur.children, child)
			cur = child
			continue
		}

		if !last {
			if !existing.isDir {
				return fmt.Errorf("%w: %q is a file, not a directory", archiveerr.ErrPathConflict, name)
			}
			cur = existing
			continue
		}

		// Last component collides with something already present.
		if existing.isDir && leafIsDir {
			if existing.metaIdx >= 0 {
				return fmt.Errorf("%w: %q", archiveerr.ErrDuplicatePath, name)
			}
			// Synthesized directory merging with an explicit directory entry.
			existing.metaIdx = metaIdx
			return nil
		}
		if existing.isDir != leafIsDir {
			return fmt.Errorf("%w: %q", archiveerr.ErrPathConflict, name)
		}
		return fmt.Errorf("%w: %q", archiveerr.ErrDuplicatePath, name)
	}
	return nil
}

// Lookup walks path component by component, failing NotFound if absent.
func (t *Tree) Lookup(path string) (*Node, error) {
	components, _, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	cur := t.root
	for _, name := range components {
		next, ok := cur.byName.get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", archiveerr.ErrNotFound, path)
		}
		cur = next
	}
	return cur, nil
}

// Files iterates every file-leaf Metadata in deterministic traversal order:
// parent before children, siblings in the order the archive listed them.
func (t *Tree) Files() iter.Seq[centraldir.Metadata] {
	return func(yield func(centraldir.Metadata) bool) {
		var walk func(n *Node) bool
		walk = func(n *Node) bool {
			for _, c := range n.children {
				if c.isDir {
					if !walk(c) {
						return false
					}
					continue
				}
				if !yield(t.metas[c.metaIdx]) {
					return false
				}
			}
			return true
		}
		walk(t.root)
	}
}

// Glob yields every file-leaf Metadata whose path matches pattern, using
// doublestar's extended glob syntax, grounded on
// elliotnunn-BeHierarchic/path.go's doublestar.MatchUnvalidated usage.
func (t *Tree) Glob(pattern string) iter.Seq[centraldir.Metadata] {
	return func(yield func(centraldir.Metadata) bool) {
		for m := range t.Files() {
			if doublestar.MatchUnvalidated(pattern, m.Path) {
				if !yield(m) {
					return
				}
			}
		}
	}
}

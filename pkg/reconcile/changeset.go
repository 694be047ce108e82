package reconcile

import (
	"fmt"
	"strings"
)

// Change is one cell-level edit detected between a group's original and
// modified representative rows. Values are stored normalized, so a null is
// always the empty string regardless of how the editor spelled it.
type Change struct {
	// GroupID is the group whose representative row carried the edit.
	GroupID int

	// Column is the edited column.
	Column string

	// Original is the representative's pre-edit value.
	Original string

	// Modified is the representative's post-edit value.
	Modified string

	// Flagged marks a modified value whose apparent type does not match the
	// column's apparent type in the record table. Flagged changes still
	// propagate; the validator decides whether they survive upload.
	Flagged bool
}

// String returns a human-readable description of the change.
func (c Change) String() string {
	return fmt.Sprintf("group %d: %s: %q -> %q", c.GroupID, c.Column, c.Original, c.Modified)
}

// Changeset holds every edit detected by one diff pass, split by
// disposition. Changes appear in ascending group id order, and within a
// group in the group table's column order.
type Changeset struct {
	// Accepted edits propagate to every member row.
	Accepted []Change

	// Identity edits target a protected identity column. They are dropped
	// from propagation and from the provenance log.
	Identity []Change

	// Grouping edits target a grouping column. They are dropped because
	// changing a grouping value would invalidate the membership derivation
	// for the group.
	Grouping []Change

	// Summary holds counts for the diff pass.
	Summary ChangesetSummary
}

// ChangesetSummary provides summary statistics for a changeset.
type ChangesetSummary struct {
	// GroupsCompared is the number of group ids present in both tables.
	GroupsCompared int

	// CellsCompared is the number of cell pairs examined.
	CellsCompared int

	// Accepted is the number of edits eligible for propagation.
	Accepted int

	// Flagged is how many accepted edits carry a type mismatch flag.
	Flagged int

	// IdentityDropped is how many edits were dropped for targeting an
	// identity column.
	IdentityDropped int

	// GroupingDropped is how many edits were dropped for targeting a
	// grouping column.
	GroupingDropped int

	// OrphanedGroups is the number of group ids present in only one table.
	OrphanedGroups int
}

// HasChanges returns true if any edit was accepted.
func (c *Changeset) HasChanges() bool {
	return len(c.Accepted) > 0
}

// IsEmpty returns true if the diff found no edits of any disposition.
func (c *Changeset) IsEmpty() bool {
	return len(c.Accepted) == 0 && len(c.Identity) == 0 && len(c.Grouping) == 0
}

// String returns a one-line summary of the changeset.
func (c *Changeset) String() string {
	if c.IsEmpty() {
		return "no edits detected"
	}

	parts := []string{fmt.Sprintf("%d edits accepted", len(c.Accepted))}
	if c.Summary.Flagged > 0 {
		parts = append(parts, fmt.Sprintf("%d flagged", c.Summary.Flagged))
	}
	if c.Summary.IdentityDropped > 0 {
		parts = append(parts, fmt.Sprintf("%d identity edits dropped", c.Summary.IdentityDropped))
	}
	if c.Summary.GroupingDropped > 0 {
		parts = append(parts, fmt.Sprintf("%d grouping edits dropped", c.Summary.GroupingDropped))
	}
	return strings.Join(parts, ", ") + fmt.Sprintf(" across %d groups", c.Summary.GroupsCompared)
}

package mcpserver

import (
	"fmt"

	"github.com/starford/raido/internal/waypoint"
)

// FormatContract describes the waypoint marker lines and block layout
// for LLM consumers.
func FormatContract(m waypoint.Markers) string {
	return fmt.Sprintf(`# Raido Waypoint Format

A waypoint is an auto-generated folder index embedded in a *folder
note*: a Markdown document named after the folder it lives in
(folder `+"`Projects/`"+` → note `+"`Projects/Projects.md`"+`).

## Marker lines

Three marker lines are recognized (whitespace around the line is
ignored, the text itself is exact):

- Flag (placeholder): `+"`%s`"+`
- Block begin:        `+"`%s`"+`
- Block end:          `+"`%s`"+`

## Lifecycle

1. Put the flag line anywhere in a folder note (or use the
   `+"`place_flag`"+` tool).
2. The sync engine replaces it with a full begin/end block holding the
   folder's bullet tree, and keeps the block current as files change.
3. Never edit text between the begin and end lines; it is regenerated
   on every rebuild.

## Block layout

- One bullet per entry, tab-indented per nesting level.
- Documents render as `+"`- [[name]]`"+` wikilinks.
- Folders render as bold bullets; a folder with its own waypoint is
  collapsed to a single bold link instead of being expanded.
- Entries are ordered case-insensitively by name.

Flags placed in documents that are not folder notes are replaced with
an error comment instead of a block.
`, m.Flag, m.Begin, m.End)
}

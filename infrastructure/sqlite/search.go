package sqlite

import "strings"

// LikeEscape is the ESCAPE clause matching LikePattern.
const LikeEscape = `ESCAPE '!'`

var likeReplacer = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

// LikePattern lowercases q and wraps it for a case-insensitive substring match.
// Use it as "LOWER(col) LIKE ? " + LikeEscape.
func LikePattern(q string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(strings.TrimSpace(q))) + "%"
}

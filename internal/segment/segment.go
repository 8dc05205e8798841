package segment

import (
	"regexp"
	"strings"
)

// =============================================================================
// Statement Segmentation
// =============================================================================

var (
	// blockStart matches lines that open a procedural block at their start.
	blockStart = regexp.MustCompile(`^(BEGIN|DECLARE)\b`)

	// blockDDL matches block-creating DDL anywhere on the line.
	blockDDL = regexp.MustCompile(`\bCREATE\s+(OR\s+REPLACE\s+)?(TRIGGER|PROCEDURE|FUNCTION|PACKAGE)\b`)

	// blockEnd matches a bare END followed by the terminator. END IF; and END LOOP; do not match.
	blockEnd = regexp.MustCompile(`\bEND\s*;`)

	// closedBlock matches a statement whose last token is END;.
	closedBlock = regexp.MustCompile(`\bEND\s*;$`)
)

// Terminator is the statement terminator character.
const Terminator = ";"

// Split breaks a migration script into individually executable statements.
//
// Lines are accumulated until one ends with the terminator. Inside a procedural
// block (BEGIN/DECLARE or CREATE TRIGGER/PROCEDURE/FUNCTION/PACKAGE) only a line
// carrying END; closes the statement, so terminators inside the body survive.
// Block depth is not tracked: the first END; closes the block.
//
// Trailing terminators are stripped from every statement except those ending
// in END;, which are returned verbatim.
func Split(text string) []string {
	var (
		statements []string
		buf        []string
		inBlock    bool
	)

	flush := func() {
		stmt := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = buf[:0]
		if stmt = finish(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		stripped := strings.ToUpper(strings.TrimSpace(line))

		comment := strings.HasPrefix(stripped, "--")
		if !inBlock && (stripped == "" || comment) {
			continue
		}

		if !inBlock && opensBlock(stripped) {
			inBlock = true
		}

		buf = append(buf, line)

		if comment || !strings.HasSuffix(stripped, Terminator) {
			continue
		}
		if !inBlock {
			flush()
		} else if blockEnd.MatchString(stripped) {
			inBlock = false
			flush()
		}
	}

	if len(buf) > 0 {
		flush()
	}

	return statements
}

// Whole returns the script as a single statement, or nothing when it holds no SQL.
// Backends that accept multi-statement batches use it in place of Split.
func Whole(text string) []string {
	if len(Split(text)) == 0 {
		return nil
	}
	return []string{strings.TrimSpace(text)}
}

func opensBlock(upper string) bool {
	return blockStart.MatchString(upper) || blockDDL.MatchString(upper)
}

// finish strips trailing terminators unless the statement closes a block.
func finish(stmt string) string {
	if closedBlock.MatchString(strings.ToUpper(stmt)) {
		return stmt
	}
	return strings.TrimRight(stmt, Terminator+" \t\r\n")
}

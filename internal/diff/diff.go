// Package diff computes minimal line-level edit scripts between two
// contents using a longest-common-subsequence backtrack, and structural
// differences between two flattened trees.
package diff

import (
	"bytes"
	"fmt"
)

// LineType classifies one line of an edit script.
type LineType int

const (
	Context LineType = iota
	Addition
	Deletion
)

// Line is a single edit operation. OldNum and NewNum are 1-based line
// numbers; OldNum is 0 for additions, NewNum is 0 for deletions.
type Line struct {
	Type    LineType
	Content string
	OldNum  int
	NewNum  int
}

// Hunk is a run of changes with surrounding context. Line counts
// include context lines, matching unified-diff headers.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// Result is a complete diff. No changes means no hunks.
type Result struct {
	Hunks []Hunk
	Stats struct {
		Additions int
		Deletions int
		Changes   int
	}
}

// Engine produces diffs with a fixed amount of hunk context.
type Engine struct {
	contextLines int
}

func NewEngine(contextLines int) *Engine {
	return &Engine{contextLines: contextLines}
}

// Diff computes the minimal edit script between two contents, line by
// line. Identical contents yield a result with no hunks.
func (e *Engine) Diff(oldContent, newContent []byte) *Result {
	oldLines := splitLines(oldContent)
	newLines := splitLines(newContent)

	script := backtrack(oldLines, newLines, lcsMatrix(oldLines, newLines))

	result := &Result{Hunks: e.groupHunks(script)}
	for _, hunk := range result.Hunks {
		for _, line := range hunk.Lines {
			switch line.Type {
			case Addition:
				result.Stats.Additions++
			case Deletion:
				result.Stats.Deletions++
			}
		}
	}
	result.Stats.Changes = result.Stats.Additions + result.Stats.Deletions
	return result
}

func splitLines(content []byte) [][]byte {
	if len(content) == 0 {
		return nil
	}
	return bytes.Split(bytes.TrimSuffix(content, []byte{'\n'}), []byte{'\n'})
}

// lcsMatrix fills the classic LCS length table for two line slices.
func lcsMatrix(oldLines, newLines [][]byte) [][]int {
	matrix := make([][]int, len(oldLines)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(newLines)+1)
	}
	for i := 1; i <= len(oldLines); i++ {
		for j := 1; j <= len(newLines); j++ {
			if bytes.Equal(oldLines[i-1], newLines[j-1]) {
				matrix[i][j] = matrix[i-1][j-1] + 1
			} else {
				matrix[i][j] = max(matrix[i-1][j], matrix[i][j-1])
			}
		}
	}
	return matrix
}

// backtrack turns the LCS table into a forward edit script covering
// every line of both inputs. The tie-break (preferring additions when
// table entries are equal) is fixed, so output is deterministic.
func backtrack(oldLines, newLines [][]byte, matrix [][]int) []Line {
	var reversed []Line
	i, j := len(oldLines), len(newLines)

	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && bytes.Equal(oldLines[i-1], newLines[j-1]):
			reversed = append(reversed, Line{
				Type:    Context,
				Content: string(oldLines[i-1]),
				OldNum:  i,
				NewNum:  j,
			})
			i--
			j--
		case j > 0 && (i == 0 || matrix[i][j-1] >= matrix[i-1][j]):
			reversed = append(reversed, Line{
				Type:    Addition,
				Content: string(newLines[j-1]),
				NewNum:  j,
			})
			j--
		default:
			reversed = append(reversed, Line{
				Type:    Deletion,
				Content: string(oldLines[i-1]),
				OldNum:  i,
			})
			i--
		}
	}

	script := make([]Line, len(reversed))
	for k, line := range reversed {
		script[len(reversed)-1-k] = line
	}
	return script
}

// groupHunks collects runs of changed lines, padding each run with up
// to contextLines of unchanged lines and merging runs whose context
// would overlap.
func (e *Engine) groupHunks(script []Line) []Hunk {
	var hunks []Hunk

	pos := 0
	for pos < len(script) {
		if script[pos].Type == Context {
			pos++
			continue
		}

		// Found a change; the hunk starts contextLines before it.
		start := max(0, pos-e.contextLines)

		// Extend past subsequent changes separated by small context runs.
		end := pos
		lastChange := pos
		for end < len(script) {
			if script[end].Type != Context {
				lastChange = end
				end++
				continue
			}
			if end-lastChange > 2*e.contextLines {
				break
			}
			end++
		}
		end = min(len(script), lastChange+e.contextLines+1)

		hunks = append(hunks, makeHunk(script[start:end]))
		pos = end
	}

	return hunks
}

func makeHunk(lines []Line) Hunk {
	h := Hunk{Lines: append([]Line(nil), lines...)}
	for _, line := range lines {
		if line.OldNum > 0 {
			if h.OldStart == 0 {
				h.OldStart = line.OldNum
			}
			h.OldLines++
		}
		if line.NewNum > 0 {
			if h.NewStart == 0 {
				h.NewStart = line.NewNum
			}
			h.NewLines++
		}
	}
	return h
}

// Format renders the diff in unified style.
func (r *Result) Format() string {
	var buf bytes.Buffer
	for _, hunk := range r.Hunks {
		fmt.Fprintf(&buf, "@@ -%d,%d +%d,%d @@\n",
			hunk.OldStart, hunk.OldLines,
			hunk.NewStart, hunk.NewLines)
		for _, line := range hunk.Lines {
			switch line.Type {
			case Addition:
				buf.WriteString("+ ")
			case Deletion:
				buf.WriteString("- ")
			case Context:
				buf.WriteString("  ")
			}
			buf.WriteString(line.Content)
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

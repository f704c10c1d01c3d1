package extractor

import (
	"regexp"
	"strings"

	"calclik-event-scanner/internal/models"
	"calclik-event-scanner/internal/patterns"
)

// MaxBlocks caps how many candidate blocks one scan retains. Blocks are
// kept first-come in encounter order; there is no ranking at this stage.
const MaxBlocks = 10

// paragraphSplit matches one-or-more blank-line boundaries in flat text.
var paragraphSplit = regexp.MustCompile(`\n\s*\n+`)

// ExtractBlocks isolates candidate text blocks from a page. When the caller
// supplies structured elements (DOM nodes whose class/id hints at an event,
// or semantic article-like elements) one block is built per element;
// otherwise the flat page text is split on blank-line boundaries. Either
// way a block is retained only if a date or time pattern matches inside it.
//
// The result is deterministic for identical input text and identical
// element enumeration order. An absence of qualifying blocks yields an
// empty slice, never an error.
func ExtractBlocks(text string, structured []models.StructuredElement) []models.TextBlock {
	var blocks []models.TextBlock

	if len(structured) > 0 {
		for _, elem := range structured {
			if len(blocks) >= MaxBlocks {
				break
			}
			cleaned := trimBlockLines(elem.Text)
			if cleaned == "" || !patterns.HasDateOrTime(cleaned) {
				continue
			}
			blocks = append(blocks, models.TextBlock{
				Text:       cleaned,
				SourceHint: models.BlockSourceStructured,
			})
		}
		return blocks
	}

	for _, paragraph := range paragraphSplit.Split(text, -1) {
		if len(blocks) >= MaxBlocks {
			break
		}
		cleaned := trimBlockLines(paragraph)
		if cleaned == "" || !patterns.HasDateOrTime(cleaned) {
			continue
		}
		blocks = append(blocks, models.TextBlock{
			Text:       cleaned,
			SourceHint: models.BlockSourceParagraph,
		})
	}

	return blocks
}

// JoinBlocks concatenates retained blocks back into one corpus for
// whole-text assembly and annotation.
func JoinBlocks(blocks []models.TextBlock) string {
	if len(blocks) == 0 {
		return ""
	}

	texts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		texts = append(texts, block.Text)
	}

	return strings.Join(texts, "\n\n")
}

// trimBlockLines strips each line and drops blank lines, preserving the
// remaining line structure.
func trimBlockLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

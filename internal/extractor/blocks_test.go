package extractor

import (
	"fmt"
	"strings"
	"testing"

	"calclik-event-scanner/internal/models"
)

func TestExtractBlocksFromParagraphs(t *testing.T) {
	text := "Welcome to our site.\n\n" +
		"Annual Conference on 3/15/2025 at 2:30 PM.\n\n" +
		"We sell widgets of all shapes.\n\n" +
		"Workshop doors open at 6 PM."

	blocks := ExtractBlocks(text, nil)

	if len(blocks) != 2 {
		t.Fatalf("Expected 2 blocks, got %d: %+v", len(blocks), blocks)
	}
	if !strings.Contains(blocks[0].Text, "3/15/2025") {
		t.Errorf("Expected first block to carry the date, got %q", blocks[0].Text)
	}
	if !strings.Contains(blocks[1].Text, "6 PM") {
		t.Errorf("Expected second block to carry the time, got %q", blocks[1].Text)
	}
	for i, block := range blocks {
		if block.SourceHint != models.BlockSourceParagraph {
			t.Errorf("Expected block %d source hint %q, got %q", i, models.BlockSourceParagraph, block.SourceHint)
		}
	}
}

func TestExtractBlocksFromStructuredElements(t *testing.T) {
	structured := []models.StructuredElement{
		{Text: "Gala dinner on March 15, 2025", Selector: "div"},
		{Text: "About our company", Selector: "article"},
		{Text: "Doors at 7:00 PM", Selector: "div"},
	}

	blocks := ExtractBlocks("ignored flat text with 1/1/2025", structured)

	if len(blocks) != 2 {
		t.Fatalf("Expected 2 blocks from structured elements, got %d", len(blocks))
	}
	for i, block := range blocks {
		if block.SourceHint != models.BlockSourceStructured {
			t.Errorf("Expected block %d source hint %q, got %q", i, models.BlockSourceStructured, block.SourceHint)
		}
	}
}

func TestExtractBlocksCap(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 25; i++ {
		paragraphs = append(paragraphs, fmt.Sprintf("Session %d runs on 3/%d/2025 downtown.", i, i%28+1))
	}
	text := strings.Join(paragraphs, "\n\n")

	blocks := ExtractBlocks(text, nil)

	if len(blocks) != MaxBlocks {
		t.Errorf("Expected block count capped at %d, got %d", MaxBlocks, len(blocks))
	}
	// First-come retention: the earliest paragraphs survive.
	if !strings.Contains(blocks[0].Text, "Session 0") {
		t.Errorf("Expected first block to be the earliest paragraph, got %q", blocks[0].Text)
	}
}

func TestExtractBlocksNoQualifyingText(t *testing.T) {
	blocks := ExtractBlocks("Just prose.\n\nMore prose without any patterns.", nil)
	if len(blocks) != 0 {
		t.Errorf("Expected no blocks, got %d", len(blocks))
	}
}

func TestExtractBlocksEmptyInput(t *testing.T) {
	if blocks := ExtractBlocks("", nil); len(blocks) != 0 {
		t.Errorf("Expected no blocks for empty text, got %d", len(blocks))
	}
}

func TestExtractBlocksTrimsLines(t *testing.T) {
	text := "   Concert on 3/15/2025   \n\n   \n"

	blocks := ExtractBlocks(text, nil)
	if len(blocks) != 1 {
		t.Fatalf("Expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Text != "Concert on 3/15/2025" {
		t.Errorf("Expected trimmed block text, got %q", blocks[0].Text)
	}
}

func TestJoinBlocks(t *testing.T) {
	blocks := []models.TextBlock{
		{Text: "first", SourceHint: models.BlockSourceParagraph},
		{Text: "second", SourceHint: models.BlockSourceParagraph},
	}

	joined := JoinBlocks(blocks)
	if joined != "first\n\nsecond" {
		t.Errorf("Expected blocks joined with blank line, got %q", joined)
	}

	if JoinBlocks(nil) != "" {
		t.Error("Expected empty corpus for no blocks")
	}
}

package indexer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkSplitsByHeading(t *testing.T) {
	content := []byte(`# Printer Troubleshooting

When nothing prints, check the queue first. The queue table holds every pending job and shows which station it was routed to for fulfillment.

## Checking the Queue

Run this against the store database to list stuck jobs with their station assignments and see how long each one has been waiting there:

` + "```sql\nSELECT JobID, Station, Status FROM PrinterQueue WHERE Status = 'Pending';\n```" + `

## Restarting the Spooler

Restart the spooler service on the affected station, then reprint the oldest stuck job to confirm the queue is draining again as expected.
`)

	c := NewArticleChunker()
	chunks := c.Chunk(content, "Printer Troubleshooting")

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if chunks[0].Heading != "Printer Troubleshooting" {
		t.Errorf("chunks[0].Heading = %q", chunks[0].Heading)
	}
	if chunks[1].Heading != "Checking the Queue" {
		t.Errorf("chunks[1].Heading = %q", chunks[1].Heading)
	}
	if !strings.Contains(chunks[1].Text, "SELECT JobID, Station, Status FROM PrinterQueue") {
		t.Errorf("SQL block missing from its section: %q", chunks[1].Text)
	}
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("chunks[%d].Index = %d", i, chunk.Index)
		}
	}
}

func TestChunkContentBeforeFirstHeadingUsesTitle(t *testing.T) {
	content := []byte("The batch settles nightly at 2 AM and retries twice on failure before paging the on-call engineer for manual settlement of the remainder.\n")

	chunks := NewArticleChunker().Chunk(content, "Batch Settlement")
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Heading != "Batch Settlement" {
		t.Errorf("Heading = %q, want the article title", chunks[0].Heading)
	}
}

func TestChunkEmptyContent(t *testing.T) {
	if chunks := NewArticleChunker().Chunk(nil, "Empty"); len(chunks) != 0 {
		t.Errorf("got %d chunks for empty content, want 0", len(chunks))
	}
	if chunks := NewArticleChunker().Chunk([]byte("   \n\n"), "Empty"); len(chunks) != 0 {
		t.Errorf("got %d chunks for whitespace content, want 0", len(chunks))
	}
}

func TestChunkMergesTinySections(t *testing.T) {
	content := []byte(`# Notes

## See Also

Check the other guide.

## Details

This section describes the detailed settlement flow and all its retry behavior in enough words to stand on its own as a retrieval unit for the index.
`)

	chunks := NewArticleChunker().Chunk(content, "Notes")
	for _, chunk := range chunks {
		if utf8.RuneCountInString(chunk.Text) < minChunkRunes && len(chunks) > 1 {
			t.Errorf("chunk %d is below the minimum size: %q", chunk.Index, chunk.Text)
		}
	}
}

func TestChunkSplitsOversizedSections(t *testing.T) {
	paragraph := strings.Repeat("The drawer count must match the recorded drops. ", 10)
	content := []byte("# Cash Handling\n\n" +
		paragraph + "\n\n" + paragraph + "\n\n" + paragraph + "\n\n" + paragraph + "\n")

	chunks := NewArticleChunker().Chunk(content, "Cash Handling")
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want an oversized section split", len(chunks))
	}
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk.Text); n > maxChunkRunes {
			t.Errorf("chunks[%d] has %d runes, want <= %d", i, n, maxChunkRunes)
		}
		if chunk.Heading != "Cash Handling" {
			t.Errorf("chunks[%d].Heading = %q", i, chunk.Heading)
		}
	}
}

func TestChunkFlattensTables(t *testing.T) {
	content := []byte(`# Error Codes

The gateway returns these codes on declined transactions and each one maps to a different recovery path for the support engineer to follow up on:

| Code | Meaning |
|------|---------|
| 05   | Do not honor |
| 51   | Insufficient funds |
`)

	chunks := NewArticleChunker().Chunk(content, "Error Codes")
	if len(chunks) == 0 {
		t.Fatal("got no chunks")
	}
	joined := chunks[0].Text
	if !strings.Contains(joined, "05 | Do not honor") {
		t.Errorf("table row not flattened: %q", joined)
	}
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"printer-troubleshooting.md", "Printer Troubleshooting"},
		{"kb/cash_drawer.md", "Cash Drawer"},
		{"Batch.md", "Batch"},
	}
	for _, tt := range tests {
		if got := titleFromFilename(tt.path); got != tt.want {
			t.Errorf("titleFromFilename(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

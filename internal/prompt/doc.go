// Package prompt turns repository inspection results into zsh prompt markup.
//
// Summarizer maps repository state, HEAD, and working tree status onto a
// StatusLabel; DirectoryContext renders the directory portion; Service wires
// discovery, summarization, and formatting into the single line printed by the
// CLI. Every failure degrades to a fixed label instead of an error.
package prompt

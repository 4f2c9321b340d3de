// Package ui implements the interactive terminal pieces of crates using bubbletea's Elm architecture.
//
// [Prompt] reads a single line from the user. When the input is a terminal the line is edited in a
// [textinput.Model] (masked for secrets, toggled with ctrl+r) with contextual help from bubbles/help;
// otherwise one line is read from the input as-is, so credentials can be piped in.
//
// [Success], [Error] and [Warn] color short status strings with the default lipgloss palette.
package ui

// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI draws the planet universe in the terminal:
//  1. [LoadingView] : Spinner and progress while the dataset is fetched or read from a snapshot
//  2. [UniverseView] : Planets rasterized onto terminal cells, centered on the focused artist
//  3. [CompareView] : The focused artist next to a comparison target, with size indicators
//  4. [PickerView] : Filterable list for choosing the comparison target
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// It registers itself as an observer of the universe controllers and renders whatever they last published.
//
// Keyboard navigation uses vim-style bindings (h/l, g/G, enter, t, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui

package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/universe/internal/tasks"
	"github.com/desertthunder/universe/internal/universe"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgDatasetLoaded MsgKind = iota
	MsgProgressUpdate
)

type datasetLoaded struct {
	dataset universe.Dataset
	err     error
}

// datasetLoadedMsg is the constructor for [MsgDatasetLoaded]
func datasetLoadedMsg(ds universe.Dataset, err error) Msg {
	return Msg{kind: MsgDatasetLoaded, data: datasetLoaded{dataset: ds, err: err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

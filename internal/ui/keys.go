package ui

import (
	"unicode"

	"golang.org/x/mobile/event/key"

	"github.com/example/markup/internal/annotation"
)

type command int

const (
	cmdNone command = iota
	cmdTool
	cmdUndo
	cmdRedo
	cmdSave
	cmdZoomIn
	cmdZoomOut
	cmdZoomFit
	cmdRotateLeft
	cmdRotateRight
	cmdWidthDown
	cmdWidthUp
	cmdDelete
	cmdClear
	cmdDeselect
	cmdQuit
)

// commandFor maps a key press outside text entry to an editor command.
// For cmdTool the selected tool is returned as well.
func commandFor(e key.Event) (command, annotation.Kind) {
	ctrl := e.Modifiers&(key.ModControl|key.ModMeta) != 0
	shift := e.Modifiers&key.ModShift != 0
	if ctrl {
		switch e.Code {
		case key.CodeZ:
			if shift {
				return cmdRedo, 0
			}
			return cmdUndo, 0
		case key.CodeY:
			return cmdRedo, 0
		case key.CodeS:
			return cmdSave, 0
		case key.CodeQ, key.CodeW:
			return cmdQuit, 0
		case key.CodeDeleteBackspace, key.CodeDeleteForward:
			return cmdClear, 0
		}
		return cmdNone, 0
	}
	switch e.Code {
	case key.CodeEscape:
		return cmdDeselect, 0
	case key.CodeDeleteBackspace, key.CodeDeleteForward:
		return cmdDelete, 0
	}
	switch e.Rune {
	case '+', '=':
		return cmdZoomIn, 0
	case '-', '_':
		return cmdZoomOut, 0
	case '0':
		return cmdZoomFit, 0
	case '[':
		return cmdRotateLeft, 0
	case ']':
		return cmdRotateRight, 0
	case ',':
		return cmdWidthDown, 0
	case '.':
		return cmdWidthUp, 0
	}
	if k, ok := toolKeys[unicode.ToLower(e.Rune)]; ok {
		return cmdTool, k
	}
	return cmdNone, 0
}

// editText applies a key press to the pending text. done reports Enter,
// cancel reports Escape.
func editText(s string, e key.Event) (next string, done, cancel bool) {
	switch e.Code {
	case key.CodeReturnEnter, key.CodeKeypadEnter:
		return s, true, false
	case key.CodeEscape:
		return s, false, true
	case key.CodeDeleteBackspace:
		r := []rune(s)
		if len(r) > 0 {
			r = r[:len(r)-1]
		}
		return string(r), false, false
	}
	if e.Rune > 0 && unicode.IsPrint(e.Rune) {
		return s + string(e.Rune), false, false
	}
	return s, false, false
}

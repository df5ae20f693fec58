package editor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/geom"
)

func readyEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	e := New(opts...)
	must(t, e, ImageLoaded{Size: geom.Size{W: 400, H: 400}})
	must(t, e, SetViewport{Viewport: geom.Viewport{Bounds: geom.RectXYWH(0, 0, 400, 400)}})
	return e
}

func must(t *testing.T, e *Editor, actions ...Action) {
	t.Helper()
	for _, a := range actions {
		_, err := e.Dispatch(a)
		require.NoError(t, err, "%T", a)
	}
}

func drag(t *testing.T, e *Editor, pts ...geom.Point) {
	t.Helper()
	must(t, e, PointerDown{At: pts[0]})
	for _, p := range pts[1 : len(pts)-1] {
		must(t, e, PointerMove{At: p})
	}
	must(t, e, PointerUp{At: pts[len(pts)-1]})
}

func TestRectangleScenario(t *testing.T) {
	e := readyEditor(t)
	must(t, e, SelectTool{Tool: annotation.Rectangle})

	dirty, err := e.Dispatch(PointerDown{At: geom.Pt(10, 10)})
	require.NoError(t, err)
	assert.True(t, dirty)
	assert.Equal(t, Drawing, e.Mode())
	require.NotNil(t, e.InProgress())
	assert.Equal(t, e.InProgress().Start, e.InProgress().End)

	must(t, e, PointerMove{At: geom.Pt(50, 30)})
	assert.Equal(t, geom.Pt(50, 30), e.InProgress().End)
	assert.Equal(t, 0, e.Annotations().Len(), "nothing committed while drawing")

	must(t, e, PointerUp{At: geom.Pt(60, 40)})
	assert.Equal(t, Idle, e.Mode())
	assert.Nil(t, e.InProgress())
	require.Equal(t, 1, e.Annotations().Len())
	got := e.Annotations().At(0)
	assert.Equal(t, annotation.Rectangle, got.Kind)
	assert.Equal(t, geom.Pt(10, 10), got.Start)
	assert.Equal(t, geom.Pt(60, 40), got.End)
	assert.Equal(t, 0, got.ZIndex)
	cursor, length := e.HistoryIndex()
	assert.Equal(t, 1, cursor)
	assert.Equal(t, 2, length)
}

func TestUndoRedoScenario(t *testing.T) {
	e := readyEditor(t)
	must(t, e, SelectTool{Tool: annotation.Line})
	drag(t, e, geom.Pt(0, 0), geom.Pt(10, 10))
	drag(t, e, geom.Pt(20, 20), geom.Pt(30, 30))
	require.Equal(t, 2, e.Annotations().Len())

	dirty, err := e.Dispatch(Undo{})
	require.NoError(t, err)
	assert.True(t, dirty)
	assert.Equal(t, 1, e.Annotations().Len())
	assert.True(t, e.CanRedo())

	must(t, e, Redo{})
	assert.Equal(t, 2, e.Annotations().Len())

	must(t, e, Undo{}, Undo{})
	assert.Equal(t, 0, e.Annotations().Len())
	dirty, err = e.Dispatch(Undo{})
	require.NoError(t, err)
	assert.False(t, dirty, "undo at the baseline is a no-op")

	must(t, e, Redo{})
	drag(t, e, geom.Pt(5, 5), geom.Pt(6, 6))
	assert.False(t, e.CanRedo(), "commit after undo drops the redo tail")
	assert.Equal(t, 2, e.Annotations().Len())
}

func TestTextScenario(t *testing.T) {
	e := readyEditor(t)
	must(t, e, SelectTool{Tool: annotation.Text})

	dirty, err := e.Dispatch(PointerDown{At: geom.Pt(20, 30)})
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, TextPending, e.Mode())
	anchor, ok := e.PendingText()
	require.True(t, ok)
	assert.Equal(t, geom.Pt(20, 30), anchor)
	assert.Equal(t, 0, e.Annotations().Len())

	must(t, e, PointerUp{At: geom.Pt(20, 30)})
	assert.Equal(t, TextPending, e.Mode(), "pointer up does not confirm text")

	dirty, err = e.Dispatch(ConfirmText{Content: "hello"})
	require.NoError(t, err)
	assert.True(t, dirty)
	require.Equal(t, 1, e.Annotations().Len())
	txt := e.Annotations().At(0)
	assert.Equal(t, annotation.Text, txt.Kind)
	assert.Equal(t, "hello", txt.Text)
	assert.Equal(t, geom.Pt(20, 30), txt.Start)
	assert.Equal(t, txt.Start, txt.End)
	assert.Equal(t, annotation.DefaultFontSize, txt.FontSize)
}

func TestEmptyTextIsDiscarded(t *testing.T) {
	e := readyEditor(t)
	must(t, e, SelectTool{Tool: annotation.Text})
	for _, content := range []string{"", "   "} {
		must(t, e, PointerDown{At: geom.Pt(1, 1)})
		dirty, err := e.Dispatch(ConfirmText{Content: content})
		require.NoError(t, err)
		assert.False(t, dirty)
		assert.Equal(t, Idle, e.Mode())
	}
	must(t, e, PointerDown{At: geom.Pt(1, 1)}, CancelText{})
	assert.Equal(t, Idle, e.Mode())
	assert.Equal(t, 0, e.Annotations().Len())
	cursor, _ := e.HistoryIndex()
	assert.Equal(t, 0, cursor)

	_, err := e.Dispatch(ConfirmText{Content: "late"})
	assert.ErrorIs(t, err, ErrNoPendingText)
}

func TestPointerDownWhileTextPendingMovesAnchor(t *testing.T) {
	e := readyEditor(t)
	must(t, e, SelectTool{Tool: annotation.Text}, PointerDown{At: geom.Pt(1, 1)}, PointerDown{At: geom.Pt(7, 8)})
	anchor, ok := e.PendingText()
	require.True(t, ok)
	assert.Equal(t, geom.Pt(7, 8), anchor)
}

func TestPointerMappedThroughViewport(t *testing.T) {
	e := readyEditor(t)
	must(t, e,
		SetViewport{Viewport: geom.Viewport{Bounds: geom.RectXYWH(0, 0, 200, 200)}},
		SelectTool{Tool: annotation.Ellipse},
	)
	drag(t, e, geom.Pt(50, 50), geom.Pt(100, 75))
	got := e.Annotations().At(0)
	assert.Equal(t, geom.Pt(100, 100), got.Start)
	assert.Equal(t, geom.Pt(200, 150), got.End)
}

func TestZIndexNeverDecreases(t *testing.T) {
	e := readyEditor(t)
	must(t, e, SelectTool{Tool: annotation.Arrow})
	drag(t, e, geom.Pt(0, 0), geom.Pt(1, 1))
	drag(t, e, geom.Pt(0, 0), geom.Pt(2, 2))
	must(t, e, Undo{})
	drag(t, e, geom.Pt(0, 0), geom.Pt(3, 3))

	var zs []int
	for _, a := range e.Annotations().All() {
		zs = append(zs, a.ZIndex)
	}
	assert.Equal(t, []int{0, 2}, zs)
	assert.Equal(t, 3, e.NextZ())
}

func TestFreehandCollectsPath(t *testing.T) {
	e := readyEditor(t)
	must(t, e, SelectTool{Tool: annotation.Freehand})
	drag(t, e, geom.Pt(1, 1), geom.Pt(2, 3), geom.Pt(4, 4), geom.Pt(5, 9))
	got := e.Annotations().At(0)
	assert.Equal(t, []geom.Point{geom.Pt(1, 1), geom.Pt(2, 3), geom.Pt(4, 4), geom.Pt(5, 9)}, got.Path)
	assert.Equal(t, geom.Pt(1, 1), got.Start)
	assert.Equal(t, geom.Pt(5, 9), got.End)
}

func TestClickWithoutDragCommits(t *testing.T) {
	e := readyEditor(t)
	must(t, e, SelectTool{Tool: annotation.Highlight})
	drag(t, e, geom.Pt(9, 9), geom.Pt(9, 9))
	require.Equal(t, 1, e.Annotations().Len())
	h := e.Annotations().At(0)
	assert.Equal(t, h.Start, h.End)
	assert.Equal(t, annotation.HighlightOpacity, h.Opacity)
}

func TestSelectToolIgnoresPointer(t *testing.T) {
	e := readyEditor(t)
	must(t, e, SelectTool{Tool: annotation.Select})
	for _, a := range []Action{PointerDown{At: geom.Pt(1, 1)}, PointerMove{At: geom.Pt(2, 2)}, PointerUp{At: geom.Pt(3, 3)}} {
		dirty, err := e.Dispatch(a)
		require.NoError(t, err)
		assert.False(t, dirty)
	}
	assert.Equal(t, Idle, e.Mode())
	assert.Equal(t, 0, e.Annotations().Len())
}

func TestNotReadyRejectsDrawing(t *testing.T) {
	e := New()
	assert.Equal(t, Loading, e.Status())
	for _, a := range []Action{PointerDown{At: geom.Pt(1, 1)}, PointerMove{}, PointerUp{}, Undo{}, Redo{}, Clear{}, SaveStarted{}} {
		_, err := e.Dispatch(a)
		assert.ErrorIs(t, err, ErrNotReady, "%T", a)
	}
	// Tool settings are accepted while loading.
	must(t, e, SelectTool{Tool: annotation.Line}, SetStrokeWidth{Width: 50})
	assert.Equal(t, annotation.MaxStrokeWidth, e.Style().StrokeWidth)

	loadErr := errors.New("404")
	must(t, e, ImageFailed{Err: loadErr})
	assert.Equal(t, Failed, e.Status())
	assert.Equal(t, loadErr, e.LoadErr())
	_, err := e.Dispatch(PointerDown{At: geom.Pt(1, 1)})
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = e.Dispatch(ImageLoaded{Size: geom.Size{W: 1, H: 1}})
	assert.ErrorIs(t, err, ErrUnexpectedLoad)
}

func TestToolSessionGuards(t *testing.T) {
	e := readyEditor(t)
	must(t, e, SelectTool{Tool: annotation.Rectangle}, PointerDown{At: geom.Pt(1, 1)})

	_, err := e.Dispatch(SelectTool{Tool: annotation.Line})
	assert.ErrorIs(t, err, ErrToolSessionActive)
	assert.Equal(t, annotation.Rectangle, e.Tool())
	_, err = e.Dispatch(Undo{})
	assert.ErrorIs(t, err, ErrToolSessionActive)
	assert.False(t, e.CanUndo())

	must(t, e, PointerUp{At: geom.Pt(5, 5)}, SelectTool{Tool: annotation.Text}, PointerDown{At: geom.Pt(2, 2)})
	must(t, e, SelectTool{Tool: annotation.Line})
	assert.Equal(t, Idle, e.Mode(), "switching tools discards pending text")

	_, err = e.Dispatch(SelectTool{Tool: annotation.Kind(42)})
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestDeleteAndClearAreUndoable(t *testing.T) {
	e := readyEditor(t)
	must(t, e, SelectTool{Tool: annotation.Line})
	drag(t, e, geom.Pt(0, 0), geom.Pt(1, 1))
	drag(t, e, geom.Pt(0, 0), geom.Pt(2, 2))
	first := e.Annotations().At(0)

	must(t, e, Delete{ID: first.ID})
	assert.Equal(t, 1, e.Annotations().Len())
	_, found := e.Annotations().ByID(first.ID)
	assert.False(t, found)

	_, err := e.Dispatch(Delete{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	must(t, e, Clear{})
	assert.Equal(t, 0, e.Annotations().Len())
	dirty, err := e.Dispatch(Clear{})
	require.NoError(t, err)
	assert.False(t, dirty)

	must(t, e, Undo{}, Undo{})
	assert.Equal(t, 2, e.Annotations().Len())
}

func TestSaveGuard(t *testing.T) {
	e := readyEditor(t)
	must(t, e, SaveStarted{})
	assert.True(t, e.Saving())
	_, err := e.Dispatch(SaveStarted{})
	assert.ErrorIs(t, err, ErrSaveInProgress)

	saveErr := errors.New("disk full")
	must(t, e, SaveFinished{Err: saveErr})
	assert.False(t, e.Saving())
	_, last := e.LastSave()
	assert.Equal(t, saveErr, last)

	must(t, e, SaveStarted{}, SaveFinished{})
	at, last := e.LastSave()
	assert.NoError(t, last)
	assert.False(t, at.IsZero())
}

func TestDocumentSnapshotAndReopen(t *testing.T) {
	e := readyEditor(t)
	must(t, e, SelectTool{Tool: annotation.Blur})
	drag(t, e, geom.Pt(0, 0), geom.Pt(8, 8))
	doc := e.Document("https://example.com/a.png", time.Unix(0, 0))
	assert.Equal(t, 400, doc.Width)
	require.Len(t, doc.Annotations, 1)
	again := e.Document("https://example.com/a.png", time.Unix(1, 0))
	assert.Equal(t, doc.ID, again.ID, "one document id per editor")

	re := readyEditor(t, WithDocument(doc), WithTool(annotation.Line))
	assert.Equal(t, 1, re.Annotations().Len())
	assert.False(t, re.CanUndo(), "reopened annotations are the baseline")
	drag(t, re, geom.Pt(0, 0), geom.Pt(1, 1))
	assert.Equal(t, 1, re.Annotations().At(1).ZIndex)
	assert.Equal(t, doc.ID, re.Document("", time.Now()).ID)
}

package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"DrawStudio/internal/config"
)

// Window is the main window with the board and its toolbar.
type Window struct {
	fyne.Window
	Board   *BoardWidget
	Toolbar *Toolbar
}

// NewWindow lays out board in a new window of a.
func NewWindow(a fyne.App, cfg config.Config, board *BoardWidget, shareLink string) *Window {
	win := a.NewWindow("DrawStudio")
	win.Resize(fyne.NewSize(1024, 768))

	w := &Window{Window: win, Board: board}
	vertical := cfg.UI.Toolbar == config.ToolbarLeft || cfg.UI.Toolbar == config.ToolbarRight
	w.Toolbar = NewToolbar(board, cfg.Brush.Palette, vertical, func() { board.ShowDownload(win) })
	board.OnError = func(err error) { dialog.ShowError(err, win) }

	status := []fyne.CanvasObject{board.StatusBar()}
	if shareLink != "" {
		link := widget.NewLabel(shareLink)
		link.TextStyle = fyne.TextStyle{Monospace: true}
		copyLink := widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() {
			win.Clipboard().SetContent(shareLink)
			board.SetStatus("Share link copied")
		})
		status = append(status, widget.NewSeparator(), link, copyLink)
	}
	statusBar := container.NewHBox(status...)

	var top, left, right fyne.CanvasObject
	bottom := fyne.CanvasObject(statusBar)
	switch cfg.UI.Toolbar {
	case config.ToolbarBottom:
		bottom = container.NewVBox(w.Toolbar.CanvasObject, statusBar)
	case config.ToolbarLeft:
		left = w.Toolbar.CanvasObject
	case config.ToolbarRight:
		right = w.Toolbar.CanvasObject
	default:
		top = w.Toolbar.CanvasObject
	}
	content := container.NewBorder(top, bottom, left, right, container.NewCenter(board))
	win.SetContent(content)
	board.LoadConfiguredBackground()
	return w
}

// Reload applies a reloaded config to the board and toolbar. Call it on the
// UI goroutine.
func (w *Window) Reload(cfg config.Config) {
	w.Board.ApplyConfig(cfg)
	w.Toolbar.Sync(w.Board)
}

// RunApp shows the board window and blocks until it is closed.
func RunApp(cfg config.Config, board *BoardWidget, shareLink string, onReady func(*Window)) {
	a := app.NewWithID("io.drawstudio")
	w := NewWindow(a, cfg, board, shareLink)
	if onReady != nil {
		onReady(w)
	}
	w.ShowAndRun()
}

package ui

import (
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"DrawStudio/internal/compositor"
	"DrawStudio/internal/state"
	"DrawStudio/internal/stroke"
)

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Name     string
	Color    color.Color
	OnTapped func(string)
}

func newColorSwatch(name string, tapped func(string)) (*colorSwatch, error) {
	c, err := stroke.ParseColor(name)
	if err != nil {
		return nil, err
	}
	s := &colorSwatch{Name: name, Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s, nil
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Name)
	}
}

// Toolbar holds the controls of the board.
type Toolbar struct {
	fyne.CanvasObject

	Mode      *widget.Select
	Width     *widget.Slider
	ImageURL  *widget.Entry
	ImageMode *widget.Select
	CORS      *widget.Check
}

// NewToolbar builds the toolbar for board, stacked when vertical is set.
// onDownload is called by the download action.
func NewToolbar(board *BoardWidget, palette []string, vertical bool, onDownload func()) *Toolbar {
	st := board.Studio()
	tb := &Toolbar{}

	// --- Mode picker ---
	modes := make([]string, 0, len(state.Modes))
	for _, m := range state.Modes {
		modes = append(modes, string(m))
	}
	tb.Mode = widget.NewSelect(modes, func(v string) {
		board.fail(st.SetMode(state.Mode(v)))
	})
	tb.Mode.SetSelected(string(st.Style().Mode))

	// --- Color Palette ---
	onColorTapped := func(name string) {
		board.fail(st.SetColor(name))
	}
	colorBox := container.NewHBox()
	if vertical {
		colorBox = container.NewGridWithColumns(4)
	}
	for _, name := range palette {
		sw, err := newColorSwatch(name, onColorTapped)
		if err != nil {
			board.log.Warn("skipping swatch", "color", name, "err", err)
			continue
		}
		colorBox.Add(sw)
	}

	// --- Line Width Slider ---
	tb.Width = widget.NewSlider(1, 50)
	tb.Width.SetValue(st.Style().LineWidth)
	tb.Width.OnChanged = func(v float64) {
		board.fail(st.SetLineWidth(v))
	}
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), tb.Width)

	// --- History and file actions ---
	actions := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentUndoIcon(), board.Undo),
		widget.NewToolbarAction(theme.ContentRedoIcon(), board.Redo),
		widget.NewToolbarAction(theme.DeleteIcon(), board.ClearBoard),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DownloadIcon(), func() {
			if onDownload != nil {
				onDownload()
			}
		}),
	)

	// --- Background image ---
	tb.ImageURL = widget.NewEntry()
	tb.ImageURL.SetPlaceHolder("Background image URL or file")
	tb.ImageURL.SetText(board.imageURL)
	imageModes := make([]string, 0, len(compositor.ImageModes))
	for _, m := range compositor.ImageModes {
		imageModes = append(imageModes, string(m))
	}
	tb.ImageMode = widget.NewSelect(imageModes, nil)
	tb.ImageMode.SetSelected(string(board.imageMode))
	tb.CORS = widget.NewCheck("CORS", nil)
	tb.CORS.SetChecked(board.useCORS)
	setImage := widget.NewButtonWithIcon("", theme.MediaPhotoIcon(), func() {
		url := strings.TrimSpace(tb.ImageURL.Text)
		if url == "" {
			return
		}
		board.SetBackgroundImage(url, compositor.ImageMode(tb.ImageMode.Selected), tb.CORS.Checked)
	})
	urlContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(220, 35)), tb.ImageURL)

	// --- Assemble everything ---
	items := []fyne.CanvasObject{
		widget.NewLabel("Mode:"),
		tb.Mode,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		widget.NewSeparator(),
		actions,
		layout.NewSpacer(),
		urlContainer,
		tb.ImageMode,
		tb.CORS,
		setImage,
	}
	if vertical {
		tb.CanvasObject = container.NewVBox(items...)
	} else {
		tb.CanvasObject = container.NewHBox(items...)
	}
	return tb
}

// Sync updates the controls after a config reload.
func (tb *Toolbar) Sync(board *BoardWidget) {
	st := board.Studio().Style()
	tb.Mode.SetSelected(string(st.Mode))
	tb.Width.SetValue(st.LineWidth)
	tb.ImageURL.SetText(board.imageURL)
	tb.ImageMode.SetSelected(string(board.imageMode))
	tb.CORS.SetChecked(board.useCORS)
}

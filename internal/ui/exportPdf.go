package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"DrawStudio/internal/export"
)

// SaveTo writes the drawing to writer. Files ending in .pdf get the stroke
// replay, everything else the flattened PNG.
func (b *BoardWidget) SaveTo(writer fyne.URIWriteCloser) error {
	defer func() {
		if err := writer.Close(); err != nil {
			b.log.Warn("close export file", "err", err)
		}
	}()

	name := writer.URI().Name()
	var err error
	if strings.EqualFold(writer.URI().Extension(), ".pdf") {
		err = export.WritePDF(writer, b.studio.Actions(), export.PDFOptions{
			Width:      b.Width(),
			Height:     b.Height(),
			Background: b.background,
			Title:      name,
		})
	} else {
		err = export.WritePNG(writer, b.studio.Image(), b.background)
	}
	if err != nil {
		return err
	}
	b.log.Info("exported", "file", name)
	b.SetStatus(fmt.Sprintf("Saved %s", name))
	return nil
}

// ShowDownload asks for a file name and exports the drawing there.
func (b *BoardWidget) ShowDownload(win fyne.Window) {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, win)
			return
		}
		if writer == nil {
			return
		}
		if err := b.SaveTo(writer); err != nil {
			dialog.ShowError(err, win)
			b.SetStatus("Export failed")
		}
	}, win)
	d.SetFileName("drawing.png")
	d.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".pdf"}))
	d.Show()
}

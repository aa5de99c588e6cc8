package workflow

import (
	"context"
	"errors"

	"github.com/revittco/pealink/internal/host"
)

// ButtonID returns the id of the "Send to Photopea" button of tab.
func ButtonID(tab string) string {
	return "image_buttons_" + tab + "_open_in_photopea"
}

// InstallButtons adds a "Send to Photopea" button next to the image
// buttons of every generation tab. Clicking it opens the tab's gallery
// image in the editor using ctx. Tabs without an image button row are
// skipped.
func (o *Orchestrator) InstallButtons(ctx context.Context) error {
	for _, tab := range []string{host.TabTxt2Img, host.TabImg2Img, host.TabExtras} {
		gallery := tab + "_gallery"
		err := o.page.AddButton("image_buttons_"+tab, ButtonID(tab), "Send to Photopea", "\U0001F99C", func() {
			if err := o.OpenInEditor(ctx, gallery); err != nil {
				o.logger.Error("open in editor", "gallery", gallery, "error", err)
			}
		})
		if errors.Is(err, host.ErrNotFound) {
			o.logger.Debug("no image buttons", "tab", tab)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

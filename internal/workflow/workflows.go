package workflow

import (
	"context"
	"fmt"

	"golang.org/x/net/html"

	"github.com/revittco/pealink/internal/host"
	"github.com/revittco/pealink/internal/imageio"
	"github.com/revittco/pealink/internal/script"
)

// File names given to images handed to the host.
const (
	outputName = "photopea_output.png"
	maskName   = "photopea_mask.png"
	imageName  = "photopea_image.png"
)

// Workflow names recorded with each export.
const (
	WorkflowSendToTab        = "send_to_tab"
	WorkflowInpaintSelection = "inpaint_selection"
	WorkflowControlNetMask   = "controlnet_mask"
)

// Alerts shown in the editor.
const (
	MsgNewDocument        = "New document created as the image sent is bigger than the active document"
	MsgNoSelection        = "No selection in active document!"
	MsgNoSelectionForMask = "No selection in active document to create a mask!"
)

type inputFinder func() (*html.Node, error)

// OpenInEditor switches to the editor tab and opens the first image of the
// gallery there. An image that fits the active document is placed into it
// as a layer and rasterized; a larger one opens as a new document and the
// user is told so.
func (o *Orchestrator) OpenInEditor(ctx context.Context, galleryID string) error {
	img, err := o.page.GalleryImage(galleryID)
	if err != nil {
		return o.targetErr(galleryID, err)
	}
	if err := o.page.SwitchTab(host.TabEditor); err != nil {
		return o.targetErr(host.TabEditor, err)
	}

	resp, err := o.send(ctx, script.DocumentSize{})
	if err != nil {
		return err
	}
	docW, docH, err := script.ParseSize(resp)
	if err != nil {
		return err
	}
	imgW, imgH, err := imageio.Dimensions(img.Data)
	if err != nil {
		return fmt.Errorf("gallery %s: %w", galleryID, err)
	}
	fits := imgW <= docW && imgH <= docH

	url, err := imageio.FileToDataURL(ctx, img)
	if err != nil {
		return err
	}
	if _, err := o.send(ctx, script.Open{DataURL: url, AsSmart: fits}); err != nil {
		return err
	}
	o.logger.Info("image opened in editor",
		"gallery", galleryID, "width", imgW, "height", imgH, "placed", fits)

	if fits {
		_, err = o.send(ctx, script.Rasterize{})
		return err
	}
	o.alert(ctx, MsgNewDocument)
	return nil
}

// SendToTab exports the editor image and injects it into tab's image input,
// or into ControlNet unit's image input when toControlNet is set.
func (o *Orchestrator) SendToTab(ctx context.Context, tab string, toControlNet bool, unit int) error {
	if !receivesImages(tab) {
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	f, err := o.exportImage(ctx, outputName)
	if err != nil {
		return err
	}
	if err := o.page.SwitchTab(tab); err != nil {
		return o.targetErr(tab, err)
	}

	if toControlNet {
		return o.injectControlNet(ctx, WorkflowSendToTab, tab, unit, false, f)
	}
	mode := "mode_" + tab
	return o.inject(ctx, WorkflowSendToTab, mode, func() (*html.Node, error) {
		return o.page.FileInput(mode)
	}, f)
}

// InpaintSelection sends the active document and a mask built from its
// selection to img2img's "Inpaint upload" mode.
func (o *Orchestrator) InpaintSelection(ctx context.Context) error {
	if err := o.selectionExists(ctx, MsgNoSelection); err != nil {
		return err
	}

	const modeID = "mode_img2img"
	if err := o.settle(ctx, modeID, func() (bool, error) {
		return true, o.page.SwitchTab(host.TabImg2Img)
	}); err != nil {
		return o.targetErr(host.TabImg2Img, err)
	}
	if err := o.settle(ctx, modeID, func() (bool, error) {
		return true, o.page.SwitchSubTab(modeID, host.InpaintUploadLabel)
	}); err != nil {
		return o.targetErr(host.InpaintUploadLabel, err)
	}

	mask, err := o.extractMask(ctx)
	if err != nil {
		return err
	}
	if err := o.inject(ctx, WorkflowInpaintSelection, host.InpaintMaskID, func() (*html.Node, error) {
		return o.page.FileInput(host.InpaintMaskID)
	}, mask); err != nil {
		return err
	}

	img, err := o.exportImage(ctx, imageName)
	if err != nil {
		return err
	}
	return o.inject(ctx, WorkflowInpaintSelection, host.InpaintBaseID, func() (*html.Node, error) {
		return o.page.FileInput(host.InpaintBaseID)
	}, img)
}

// SendImageAndMaskToControlNet sends a mask built from the selection and
// the document image to ControlNet unit of tab.
func (o *Orchestrator) SendImageAndMaskToControlNet(ctx context.Context, tab string, unit int) error {
	if !receivesImages(tab) {
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	if err := o.selectionExists(ctx, MsgNoSelectionForMask); err != nil {
		return err
	}
	if tab == host.TabTxt2Img || tab == host.TabImg2Img {
		if err := o.page.SwitchTab(tab); err != nil {
			return o.targetErr(tab, err)
		}
	}

	mask, err := o.extractMask(ctx)
	if err != nil {
		return err
	}
	if err := o.injectControlNet(ctx, WorkflowControlNetMask, tab, unit, true, mask); err != nil {
		return err
	}

	img, err := o.exportImage(ctx, imageName)
	if err != nil {
		return err
	}
	return o.injectControlNet(ctx, WorkflowControlNetMask, tab, unit, false, img)
}

func (o *Orchestrator) injectControlNet(ctx context.Context, workflow, tab string, unit int, mask bool, f imageio.File) error {
	container := host.ScriptContainerID(tab)
	if err := o.settle(ctx, container, func() (bool, error) {
		return o.page.SelectControlNetUnit(tab, unit)
	}); err != nil {
		return o.targetErr(container, err)
	}

	slot := "input_image"
	if mask {
		slot = "mask_image"
	}
	target := fmt.Sprintf("%s ControlNet unit %d %s", container, unit, slot)
	return o.inject(ctx, workflow, target, func() (*html.Node, error) {
		return o.page.ControlNetSlot(tab, unit, mask)
	}, f)
}

func receivesImages(tab string) bool {
	switch tab {
	case host.TabTxt2Img, host.TabImg2Img, host.TabExtras:
		return true
	}
	return false
}

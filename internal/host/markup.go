package host

import (
	"fmt"
	"strings"
)

var img2imgModes = []string{"img2img", "Sketch", "Inpaint", "Inpaint sketch", InpaintUploadLabel, "Batch"}

func markup(opts Options) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><title>Stable Diffusion</title></head><body><div id="tabs">`)
	b.WriteString(`<div class="tab-nav">`)
	for i, t := range []struct{ id, label string }{
		{TabTxt2Img, "txt2img"}, {TabImg2Img, "img2img"}, {TabExtras, "Extras"}, {TabEditor, "Photopea"},
	} {
		class := ""
		if i == 0 {
			class = ` class="selected"`
		}
		fmt.Fprintf(&b, `<button data-tab="%s"%s>%s</button>`, t.id, class, t.label)
	}
	b.WriteString(`</div>`)

	// txt2img
	b.WriteString(`<div id="tab_txt2img">`)
	b.WriteString(`<div id="txt2img_gallery" class="gallery"></div>`)
	b.WriteString(`<div id="image_buttons_txt2img"><button id="txt2img_save">Save</button></div>`)
	b.WriteString(`<div id="txt2img_script_container">`)
	if opts.ControlNet {
		controlNet(&b, TabTxt2Img, opts.ControlNetUnits)
	}
	b.WriteString(`</div></div>`)

	// img2img
	b.WriteString(`<div id="tab_img2img" style="display: none">`)
	b.WriteString(`<div id="img2img_gallery" class="gallery"></div>`)
	b.WriteString(`<div id="image_buttons_img2img"><button id="img2img_save">Save</button></div>`)
	b.WriteString(`<div id="mode_img2img"><div class="tab-nav">`)
	for i, m := range img2imgModes {
		class := ""
		if i == 0 {
			class = ` class="selected"`
		}
		fmt.Fprintf(&b, `<button%s>%s</button>`, class, m)
	}
	b.WriteString(`</div>`)
	b.WriteString(`<div id="img2img_image"><input type="file" accept="image/*"/></div>`)
	b.WriteString(`<div id="img2img_sketch"><input type="file" accept="image/*"/></div>`)
	b.WriteString(`<div id="img2maskimg"><input type="file" accept="image/*"/></div>`)
	b.WriteString(`<div id="inpaint_sketch"><input type="file" accept="image/*"/></div>`)
	fmt.Fprintf(&b, `<div id="%s"><input type="file" accept="image/*"/></div>`, InpaintBaseID)
	fmt.Fprintf(&b, `<div id="%s"><input type="file" accept="image/*"/></div>`, InpaintMaskID)
	b.WriteString(`</div>`)
	b.WriteString(`<div id="img2img_script_container">`)
	if opts.ControlNet {
		controlNet(&b, TabImg2Img, opts.ControlNetUnits)
	}
	b.WriteString(`</div></div>`)

	// extras
	b.WriteString(`<div id="tab_extras" style="display: none">`)
	b.WriteString(`<div id="extras_gallery" class="gallery"></div>`)
	b.WriteString(`<div id="image_buttons_extras"><button id="extras_save">Save</button></div>`)
	b.WriteString(`<div id="mode_extras"><div id="extras_image"><input type="file" accept="image/*"/></div></div>`)
	b.WriteString(`</div>`)

	// editor
	b.WriteString(`<div id="tab_photopea_embed" style="display: none">`)
	fmt.Fprintf(&b, `<iframe id="%s" src="%s" width="100%%" height="768"></iframe>`, EditorFrameID, opts.EditorURL)
	fmt.Fprintf(&b, `<div id="%s"><label><input type="checkbox"/>Active Layer Only</label></div>`, ActiveLayerOnlyID)
	fmt.Fprintf(&b, `<div id="%s"><input type="range" min="512" max="2160" step="1" value="768"/></div>`, FrameHeightSliderID)
	b.WriteString(`</div>`)

	b.WriteString(`</div></body></html>`)
	return b.String()
}

func controlNet(b *strings.Builder, tab string, units int) {
	b.WriteString(`<div id="controlnet">`)
	if units > 1 {
		b.WriteString(`<div class="tab-nav">`)
		for i := 0; i < units; i++ {
			class := ""
			if i == 0 {
				class = ` class="selected"`
			}
			fmt.Fprintf(b, `<button%s>ControlNet Unit %d</button>`, class, i)
		}
		b.WriteString(`</div>`)
	}
	for i := 0; i < units; i++ {
		prefix := fmt.Sprintf("%s_controlnet_ControlNet-%d", tab, i)
		fmt.Fprintf(b, `<div id="%s_input_image"><input type="file" accept="image/*"/></div>`, prefix)
		fmt.Fprintf(b, `<div id="%s_mask_image"><input type="file" accept="image/*"/></div>`, prefix)
	}
	b.WriteString(`</div>`)
}

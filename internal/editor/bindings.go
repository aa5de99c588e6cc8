package editor

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/dop251/goja"

	"github.com/revittco/pealink/internal/channel"
	"github.com/revittco/pealink/internal/imageio"
)

const prelude = `
function SolidColor() {
    this.rgb = { red: 0, green: 0, blue: 0, hexValue: "000000" };
}
`

type jsFunc = func(goja.FunctionCall) goja.Value

// install exposes app, alert and SolidColor to scripts.
func (e *Editor) install() {
	vm := e.vm
	if _, err := vm.RunString(prelude); err != nil {
		panic(err)
	}

	app := vm.NewObject()
	e.accessor(app, "activeDocument", func(goja.FunctionCall) goja.Value {
		if e.active == nil {
			return goja.Null()
		}
		return e.documentObject(e.active)
	}, nil)
	e.accessor(app, "documents", func(goja.FunctionCall) goja.Value {
		items := make([]interface{}, 0, len(e.docs))
		for _, d := range e.docs {
			items = append(items, e.documentObject(d))
		}
		return vm.NewArray(items...)
	}, nil)
	_ = app.Set("echoToOE", func(call goja.FunctionCall) goja.Value {
		e.emit(channel.Text(call.Argument(0).String()))
		return goja.Undefined()
	})
	_ = app.Set("echo", func(call goja.FunctionCall) goja.Value {
		msg := call.Argument(0).String()
		e.echoes = append(e.echoes, msg)
		e.logger.Debug("editor echo", "message", msg)
		return goja.Undefined()
	})
	_ = app.Set("open", e.open)

	_ = vm.Set("app", app)
	_ = vm.Set("alert", func(call goja.FunctionCall) goja.Value {
		msg := call.Argument(0).String()
		e.alerts = append(e.alerts, msg)
		e.logger.Info("editor alert", "message", msg)
		return goja.Undefined()
	})
}

func (e *Editor) accessor(obj *goja.Object, name string, get, set jsFunc) {
	var getter, setter goja.Value
	if get != nil {
		getter = e.vm.ToValue(get)
	}
	if set != nil {
		setter = e.vm.ToValue(set)
	}
	if err := obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		panic(err)
	}
}

func (e *Editor) throw(format string, args ...interface{}) {
	panic(e.vm.NewTypeError(append([]interface{}{format}, args...)...))
}

// open implements app.open(url, as, asSmart).
func (e *Editor) open(call goja.FunctionCall) goja.Value {
	f, err := imageio.DecodeDataURL(call.Argument(0).String(), "")
	if err != nil {
		e.throw("app.open: %v", err)
	}
	img, err := imageio.Decode(f.Data)
	if err != nil {
		e.throw("app.open: %v", err)
	}

	if call.Argument(2).ToBoolean() && e.active != nil {
		e.active.PlaceImage("Smart Object", img, true)
		return goja.Undefined()
	}
	e.openDocument(NewDocumentFromImage(e.nextName(), img))
	return goja.Undefined()
}

func (e *Editor) documentObject(d *Document) *goja.Object {
	if obj, ok := e.docObj[d]; ok {
		return obj
	}
	vm := e.vm
	obj := vm.NewObject()
	e.docObj[d] = obj

	e.accessor(obj, "name", func(goja.FunctionCall) goja.Value { return vm.ToValue(d.Name) }, nil)
	e.accessor(obj, "width", func(goja.FunctionCall) goja.Value { return vm.ToValue(d.Width) }, nil)
	e.accessor(obj, "height", func(goja.FunctionCall) goja.Value { return vm.ToValue(d.Height) }, nil)
	e.accessor(obj, "layers", func(goja.FunctionCall) goja.Value {
		items := make([]interface{}, 0, len(d.Layers))
		for _, l := range d.Layers {
			items = append(items, e.layerObject(d, l))
		}
		return vm.NewArray(items...)
	}, nil)
	e.accessor(obj, "activeLayer",
		func(goja.FunctionCall) goja.Value {
			if d.Active() == nil {
				return goja.Null()
			}
			return e.layerObject(d, d.Active())
		},
		func(call goja.FunctionCall) goja.Value {
			target := call.Argument(0)
			for l, lo := range e.lyrObj {
				if lo == target && d.SetActive(l) {
					return goja.Undefined()
				}
			}
			e.throw("activeLayer: not a layer of %s", d.Name)
			return goja.Undefined()
		})
	e.accessor(obj, "selection", func(goja.FunctionCall) goja.Value {
		return e.selectionObject(d)
	}, nil)

	artLayers := vm.NewObject()
	e.accessor(artLayers, "length", func(goja.FunctionCall) goja.Value { return vm.ToValue(len(d.Layers)) }, nil)
	_ = artLayers.Set("add", func(goja.FunctionCall) goja.Value {
		return e.layerObject(d, d.AddLayer("Layer "+strconv.Itoa(len(d.Layers))))
	})
	_ = obj.Set("artLayers", artLayers)

	_ = obj.Set("saveToOE", func(call goja.FunctionCall) goja.Value {
		format := "png"
		if arg := call.Argument(0); !goja.IsUndefined(arg) && !goja.IsNull(arg) {
			format = arg.String()
		}
		data, err := d.Encode(format)
		if err != nil {
			e.throw("saveToOE: %v", err)
		}
		e.emit(channel.Binary(data))
		return goja.Undefined()
	})
	return obj
}

func (e *Editor) layerObject(d *Document, l *Layer) *goja.Object {
	if obj, ok := e.lyrObj[l]; ok {
		return obj
	}
	vm := e.vm
	obj := vm.NewObject()
	e.lyrObj[l] = obj

	_ = obj.Set("typename", "ArtLayer")
	e.accessor(obj, "name",
		func(goja.FunctionCall) goja.Value { return vm.ToValue(l.Name) },
		func(call goja.FunctionCall) goja.Value {
			l.Name = call.Argument(0).String()
			return goja.Undefined()
		})
	e.accessor(obj, "visible",
		func(goja.FunctionCall) goja.Value { return vm.ToValue(l.Visible) },
		func(call goja.FunctionCall) goja.Value {
			l.Visible = call.Argument(0).ToBoolean()
			return goja.Undefined()
		})
	e.accessor(obj, "kind", func(goja.FunctionCall) goja.Value {
		if l.Smart {
			return vm.ToValue("SmartObject")
		}
		return vm.ToValue("Normal")
	}, nil)
	_ = obj.Set("rasterize", func(goja.FunctionCall) goja.Value {
		l.Smart = false
		return goja.Undefined()
	})
	_ = obj.Set("remove", func(goja.FunctionCall) goja.Value {
		if err := d.RemoveLayer(l); err != nil {
			e.throw("remove: %v", err)
		}
		delete(e.lyrObj, l)
		return goja.Undefined()
	})
	return obj
}

func (e *Editor) selectionObject(d *Document) *goja.Object {
	if obj, ok := e.selObj[d]; ok {
		return obj
	}
	vm := e.vm
	obj := vm.NewObject()
	e.selObj[d] = obj

	e.accessor(obj, "bounds", func(goja.FunctionCall) goja.Value {
		r, ok := d.SelectionBounds()
		if !ok {
			return goja.Null()
		}
		return vm.NewArray(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
	}, nil)
	_ = obj.Set("select", func(call goja.FunctionCall) goja.Value {
		d.Select(e.polygonBounds(call.Argument(0)))
		return goja.Undefined()
	})
	_ = obj.Set("selectAll", func(goja.FunctionCall) goja.Value {
		d.SelectAll()
		return goja.Undefined()
	})
	_ = obj.Set("deselect", func(goja.FunctionCall) goja.Value {
		d.Deselect()
		return goja.Undefined()
	})
	_ = obj.Set("invert", func(goja.FunctionCall) goja.Value {
		d.InvertSelection()
		return goja.Undefined()
	})
	_ = obj.Set("fill", func(call goja.FunctionCall) goja.Value {
		d.Fill(e.solidColor(call.Argument(0)))
		return goja.Undefined()
	})
	return obj
}

// polygonBounds reads [[x,y], ...] and returns its bounding rectangle.
func (e *Editor) polygonBounds(v goja.Value) image.Rectangle {
	var pts [][]float64
	if err := e.vm.ExportTo(v, &pts); err != nil || len(pts) == 0 {
		e.throw("select: expected an array of [x, y] points")
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		if len(p) != 2 {
			e.throw("select: expected an array of [x, y] points")
		}
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}
	return image.Rect(int(minX), int(minY), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

func (e *Editor) solidColor(v goja.Value) color.RGBA {
	if goja.IsUndefined(v) || goja.IsNull(v) {
		e.throw("fill: missing color")
	}
	rgb := v.ToObject(e.vm).Get("rgb")
	if rgb == nil || goja.IsUndefined(rgb) || goja.IsNull(rgb) {
		e.throw("fill: color has no rgb")
	}
	o := rgb.ToObject(e.vm)
	return color.RGBA{
		R: channelValue(o.Get("red")),
		G: channelValue(o.Get("green")),
		B: channelValue(o.Get("blue")),
		A: 255,
	}
}

func channelValue(v goja.Value) uint8 {
	if v == nil {
		return 0
	}
	f := v.ToFloat()
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= 255:
		return 255
	default:
		return uint8(math.Round(f))
	}
}

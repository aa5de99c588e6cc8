package script

// Script bodies understood by the remote editor. Multi-step scripts define a
// helper and invoke it within the same payload.

const getAllArtLayers = `
function getAllArtLayers(document, layerCollection) {
    for (var i = 0; i < document.layers.length; i++) {
        var currentLayer = document.layers[i];
        if (currentLayer.typename === "ArtLayer") {
            layerCollection.push(currentLayer);
        } else {
            getAllArtLayers(currentLayer, layerCollection);
        }
    }
    return layerCollection;
}`

// exportSelectedLayerOnly takes the output format as %s (a quoted literal).
const exportSelectedLayerOnly = getAllArtLayers + `
function exportSelectedLayerOnly(format) {
    var allLayers = [];
    allLayers = getAllArtLayers(app.activeDocument, allLayers);
    var layerStates = [];
    for (var i = 0; i < allLayers.length; i++) {
        layerStates.push(allLayers[i].visible);
        allLayers[i].visible = allLayers[i] == app.activeDocument.activeLayer;
    }
    app.activeDocument.saveToOE(format);
    for (var i = 0; i < allLayers.length; i++) {
        allLayers[i].visible = layerStates[i];
    }
}
exportSelectedLayerOnly(%s);`

const createMaskFromSelection = `
function createMaskFromSelection() {
    if (app.activeDocument.selection === null) {
        app.echo("No selection!");
        return;
    }
    var newLayer = app.activeDocument.artLayers.add();
    newLayer.name = "TempMaskLayer";
    app.activeDocument.selection.invert();
    var color = new SolidColor();
    color.rgb.red = 0;
    color.rgb.green = 0;
    color.rgb.blue = 0;
    app.activeDocument.selection.fill(color);
    color.rgb.red = 255;
    color.rgb.green = 255;
    color.rgb.blue = 255;
    app.activeDocument.selection.invert();
    app.activeDocument.selection.fill(color);
}
createMaskFromSelection();`

const selectionExists = `
app.echoToOE(app.activeDocument.selection.bounds != null);`

const activeDocumentSize = `
app.echoToOE(app.activeDocument.width + "," + app.activeDocument.height);`

package ui

import (
	"image/color"
	"strconv"

	"RosetteBoard/internal/engine"
	"RosetteBoard/internal/geometry"
	"RosetteBoard/internal/render"
	"RosetteBoard/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// palette is offered as swatches next to the free-form color entry.
var palette = []string{"#000000", "#e03131", "#2f9e44", "#1971c2", "#f08c00", "#9c36b5"}

type colorSwatch struct {
	widget.BaseWidget
	Color    string
	OnTapped func(string)
}

func newColorSwatch(hex string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Color: hex, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	c, err := render.ParseColor(s.Color)
	if err != nil {
		c = color.Black
	}
	rect := canvas.NewRectangle(c)
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// Toolbar holds the setting controls. Sync pushes engine settings back into
// the widgets without echoing them as updates.
type Toolbar struct {
	fyne.CanvasObject

	tool     *widget.Select
	width    *widget.Select
	order    *widget.Select
	reflect  *widget.Check
	guides   *widget.Check
	cursor   *widget.RadioGroup
	color    *widget.Entry
	syncing  bool
	onChange func(key string, value any)
}

// Actions are the document commands wired to toolbar buttons.
type Actions struct {
	Undo, Redo, Clear, Save, Load, ExportPNG, ExportPDF func()
}

func NewToolbar(e *engine.Engine, actions Actions, onError func(error)) *Toolbar {
	t := &Toolbar{}
	t.onChange = func(key string, value any) {
		if t.syncing {
			return
		}
		if err := e.UpdateSetting(key, value); err != nil {
			onError(err)
		}
	}

	tools := make([]string, len(state.Tools))
	for i, tool := range state.Tools {
		tools[i] = string(tool)
	}
	t.tool = widget.NewSelect(tools, func(v string) { t.onChange(state.KeyTool, v) })

	widths := make([]string, len(state.LineWidths))
	for i, w := range state.LineWidths {
		widths[i] = strconv.Itoa(w)
	}
	t.width = widget.NewSelect(widths, func(v string) { t.onChange(state.KeyLineWidth, v) })

	var orders []string
	for n := geometry.MinOrder; n <= geometry.MaxOrder; n++ {
		orders = append(orders, strconv.Itoa(n))
	}
	t.order = widget.NewSelect(orders, func(v string) { t.onChange(state.KeyRotationOrder, v) })

	t.reflect = widget.NewCheck("Reflect", func(v bool) { t.onChange(state.KeyReflectionEnabled, v) })
	t.guides = widget.NewCheck("Guides", func(v bool) { t.onChange(state.KeyShowGuides, v) })
	t.cursor = widget.NewRadioGroup(state.CursorStyles, func(v string) {
		if v != "" {
			t.onChange(state.KeyCursorStyle, v)
		}
	})
	t.cursor.Horizontal = true
	t.cursor.Required = true

	t.color = widget.NewEntry()
	t.color.OnSubmitted = func(v string) { t.onChange(state.KeyColor, v) }
	swatches := container.NewHBox()
	for _, hex := range palette {
		swatches.Add(newColorSwatch(hex, func(c string) {
			t.color.SetText(c)
			t.onChange(state.KeyColor, c)
		}))
	}

	commands := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentUndoIcon(), actions.Undo),
		widget.NewToolbarAction(theme.ContentRedoIcon(), actions.Redo),
		widget.NewToolbarAction(theme.DeleteIcon(), actions.Clear),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), actions.Save),
		widget.NewToolbarAction(theme.FolderOpenIcon(), actions.Load),
		widget.NewToolbarAction(theme.MediaPhotoIcon(), actions.ExportPNG),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), actions.ExportPDF),
	)

	colorEntry := container.New(layout.NewGridWrapLayout(fyne.NewSize(100, 35)), t.color)
	t.CanvasObject = container.NewVBox(
		container.NewHBox(
			widget.NewLabel("Tool:"), t.tool,
			widget.NewLabel("Width:"), t.width,
			widget.NewLabel("Order:"), t.order,
			t.reflect, t.guides,
		),
		container.NewHBox(
			widget.NewLabel("Color:"), swatches, colorEntry,
			widget.NewLabel("Cursor:"), t.cursor,
			layout.NewSpacer(),
			commands,
		),
	)
	t.Sync(e.Settings())
	return t
}

// Sync shows s in the controls. Call on the UI goroutine.
func (t *Toolbar) Sync(s state.Settings) {
	t.syncing = true
	defer func() { t.syncing = false }()
	t.tool.SetSelected(string(s.Tool))
	t.width.SetSelected(strconv.Itoa(s.LineWidth))
	t.order.SetSelected(strconv.Itoa(s.RotationOrder))
	t.reflect.SetChecked(s.ReflectionEnabled)
	t.guides.SetChecked(s.ShowGuides)
	t.cursor.SetSelected(s.CursorStyle)
	t.color.SetText(s.Color)
}

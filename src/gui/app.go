package gui

import (
	"image"
	"image/color"
	"log"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"screen-annotate/src/editor"
	"screen-annotate/src/messages"
	"screen-annotate/src/notification"
	"screen-annotate/src/screenshot"
)

const appID = "io.github.screen-annotate"

type Options struct {
	Title string
	Tool  editor.Tool
	Color color.NRGBA
}

// App is the fyne side of the program: the editor window, the selection
// overlay and the text prompt. Methods called from the event loop return
// immediately and apply their changes on the fyne goroutine.
type App struct {
	fyneApp  fyne.App
	editor   fyne.Window
	canvas   *EditorCanvas
	scroll   *container.Scroll
	toolbar  *toolbar
	notifier *desktopNotifier

	mu   sync.Mutex
	post Poster
}

func New(opts Options) *App {
	if opts.Title == "" {
		opts.Title = "Screen Annotate"
	}
	if opts.Tool == "" {
		opts.Tool = editor.ToolSelect
	}
	a := &App{fyneApp: app.NewWithID(appID)}
	a.notifier = &desktopNotifier{app: a.fyneApp}

	a.editor = a.fyneApp.NewWindow(opts.Title)
	a.canvas = NewEditorCanvas(a.send)
	a.scroll = container.NewScroll(container.NewCenter(a.canvas))

	var bar fyne.CanvasObject
	a.toolbar, bar = newToolbar(a.send, a.editor, opts.Tool, opts.Color)
	a.editor.SetContent(container.NewBorder(bar, a.toolbar.status, nil, nil, a.scroll))
	a.editor.Resize(fyne.NewSize(1024, 720))
	a.editor.SetCloseIntercept(a.editor.Hide)

	a.editor.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			a.send(messages.DeleteSelected{})
		}
	})
	a.editor.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyC,
		Modifier: fyne.KeyModifierShortcutDefault,
	}, func(fyne.Shortcut) {
		a.send(messages.CopyRequested{})
	})
	return a
}

// Bind sets where user input is posted. Input before Bind is dropped.
func (a *App) Bind(post Poster) {
	a.mu.Lock()
	a.post = post
	a.mu.Unlock()
}

func (a *App) send(m messages.Message) bool {
	a.mu.Lock()
	post := a.post
	a.mu.Unlock()
	if post == nil {
		log.Printf("gui: dropped %s, not bound", m.Type())
		return false
	}
	return post(m)
}

func (a *App) Notifier() notification.Notifier { return a.notifier }

// Run drives the fyne event loop. It must be called from the main goroutine
// and returns after Quit.
func (a *App) Run() {
	a.fyneApp.Run()
	a.notifier.detach()
}

func (a *App) Quit() {
	fyne.Do(a.fyneApp.Quit)
}

func (a *App) ShowFrame(frame image.Image, status string) {
	fyne.Do(func() {
		a.canvas.SetFrame(frame)
		a.scroll.Refresh()
		a.toolbar.status.SetText(status)
	})
}

func (a *App) ShowEditor() {
	fyne.Do(func() {
		a.editor.Show()
		a.editor.RequestFocus()
	})
}

// Begin implements overlay.Selector.
func (a *App) Begin(full *image.RGBA, done func(screenshot.Region, bool)) {
	fyne.Do(func() { a.showSelection(full, done) })
}

// RequestText implements editor.TextPrompt with a form dialog on the editor window.
func (a *App) RequestText(message string, reply func(string, bool)) {
	fyne.Do(func() {
		entry := widget.NewEntry()
		entry.SetPlaceHolder("Annotation text")
		form := dialog.NewForm("Add text", "Add", "Cancel",
			[]*widget.FormItem{widget.NewFormItem(message, entry)},
			func(ok bool) { reply(entry.Text, ok) },
			a.editor)
		entry.OnSubmitted = func(string) { form.Submit() }
		form.Resize(fyne.NewSize(360, 160))
		form.Show()
		a.editor.Canvas().Focus(entry)
	})
}

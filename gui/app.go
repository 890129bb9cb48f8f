package gui

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guslan/schip"
)

const (
	ToolbarGap       = 5
	ToolbarBtnWidth  = 80
	ToolbarBtnHeight = 40
	ToolbarHeight    = 50
	ToolbarBtnOffset = ToolbarBtnWidth + ToolbarGap

	ScreenPixelSize = 15
	ScreenPositionX = 0
	ScreenPositionY = ToolbarHeight + 1
	// the window always has room for 64x32 pixels of ScreenPixelSize
	ScreenWidth  = 64 * ScreenPixelSize
	ScreenHeight = 32 * ScreenPixelSize

	MessageBarGap   = 5
	MessageBarHeigh = 30

	WindowWidth  = ScreenWidth
	WindowHeight = ScreenPositionY + ScreenHeight + MessageBarHeigh
)

var MessageBarBgColor = rl.DarkGray
var MessageBarInfoColor = rl.SkyBlue
var MessageBarSuccessColor = rl.Lime
var MessageBarWarningColor = rl.Gold
var MessageBarErrorColor = rl.Red

type MessageType byte

const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

type AppConfig struct {
	// Speed in instructions per second
	Speed          int
	KeyboardLayout schip.KeyboardLayout
	CpuOptions     []schip.Option
}
type AppConfigCb func(config *AppConfig)

type ConsoleApp struct {
	// The underlying console
	Cpu       *schip.Cpu
	presenter *schip.Presenter
	// Speed in Hz
	speed float32

	// last frame handed over by the presenter
	screen   schip.Screen
	settings schip.ScreenSettings
	beeping  bool

	keyboardLookupMap map[ScanCode]byte

	// Toolbar
	startBtn, stopBtn, stepBtn, restBtn bool

	loadedProgramPath string
	reportedErr       error

	lastMessage      string
	lastMessageColor rl.Color
}

func NewApp(configs ...AppConfigCb) *ConsoleApp {
	config := &AppConfig{
		Speed:          schip.DefaultSpeed,
		KeyboardLayout: schip.DefaultKeyboardLayout,
	}
	for _, cb := range configs {
		cb(config)
	}

	app := &ConsoleApp{
		Cpu:               schip.NewCpu(schip.NewMemory(), config.CpuOptions...),
		speed:             float32(clampSpeed(config.Speed)),
		keyboardLookupMap: keyboardLookupMap(config.KeyboardLayout),
	}
	app.presenter = schip.NewPresenter(app.Cpu, app, app)
	app.screen, app.settings = app.Cpu.Snapshot()

	return app
}

func clampSpeed(speed int) int {
	return min(max(speed, schip.MinSpeed), schip.MaxSpeed)
}

// Run opens the window and runs the UI loop until the window is closed.
// If autostart is set and a program is loaded the console starts right away.
func (app *ConsoleApp) Run(autostart bool) error {
	if err := app.presenter.Boot(); err != nil {
		return err
	}

	rl.InitWindow(WindowWidth, WindowHeight, "schip")
	defer rl.CloseWindow()

	gui.LoadStyleDefault()
	rl.SetTargetFPS(int32(schip.TimerFrequency))

	if autostart && app.hasProgramLoaded() {
		app.start()
	}

	for !rl.WindowShouldClose() {
		app.handleFileLoad()
		app.handleActions()
		app.handleKeyPress()
		app.updateCpuSpeed()
		app.checkCpu()

		if err := app.presenter.Frame(); err != nil {
			slog.Error("Error presenting a frame", slog.Any("error", err))
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)

		app.drawMessageBar()
		app.drawScreen()
		app.drawToolbar()

		rl.EndDrawing()
	}

	return app.Cpu.Stop()
}

// Load reads the program at path into the console
func (app *ConsoleApp) Load(path string) error {
	program, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	app.Cpu.Stop()
	if err = app.Cpu.LoadProgram(program); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	app.loadedProgramPath = path
	app.reportedErr = nil
	slog.Info("Program loaded", slog.String("path", path), slog.Int("size", len(program)))
	app.showMessage(fmt.Sprintf("Program '%s' loaded", filepath.Base(path)), MessageInfo)

	return nil
}

func (app *ConsoleApp) handleFileLoad() {
	if !rl.IsFileDropped() {
		return
	}

	files := rl.LoadDroppedFiles()
	defer rl.UnloadDroppedFiles()

	slog.Info("Files were dropped", "files", strings.Join(files, ","))
	if len(files) == 0 {
		return
	}

	if err := app.Load(files[0]); err != nil {
		slog.Error("Error loading program", slog.Any("error", err))
		app.showMessage(err.Error(), MessageError)
		return
	}
	app.start()
}

func (app ConsoleApp) hasProgramLoaded() bool {
	return len(app.loadedProgramPath) > 0
}

func (app *ConsoleApp) start() {
	speed := int(app.speed)
	if err := app.Cpu.Start(speed); err != nil {
		slog.Warn("Could not start the console", slog.Any("error", err))
		app.showMessage(err.Error(), MessageWarning)
		return
	}
	slog.Info("Starting the console", slog.Int("speed", speed))
	app.showMessage(fmt.Sprintf("Running at %d Hz", speed), MessageSuccess)
}

func (app *ConsoleApp) stop() {
	slog.Info("Stopping the console")
	if err := app.Cpu.Stop(); err != nil {
		app.report(err)
		return
	}
	app.showMessage("Stopped", MessageInfo)
}

func (app *ConsoleApp) handleActions() {
	if app.startBtn {
		if app.hasProgramLoaded() {
			app.start()
		} else {
			app.showMessage("There is no program loaded", MessageError)
		}
	}
	if app.stopBtn {
		app.stop()
	}
	if app.restBtn {
		app.Cpu.Stop()
		slog.Info("Resetting the program to the beginning")
		if err := app.Cpu.Reset(); err != nil {
			app.report(err)
		} else {
			app.reportedErr = nil
			app.showMessage("Reset", MessageInfo)
		}
	}
	if app.stepBtn {
		slog.Debug("Running a single instruction")
		if err := app.Cpu.Step(); err != nil {
			app.report(err)
		}
	}
}

// checkCpu reports the error that halted the console on its own
func (app *ConsoleApp) checkCpu() {
	if app.Cpu.IsRunning() {
		return
	}
	if err := app.Cpu.Err(); err != nil {
		app.report(err)
	}
}

func (app *ConsoleApp) report(err error) {
	if err == app.reportedErr {
		return
	}
	app.reportedErr = err

	switch {
	case errors.Is(err, schip.ErrExit):
		app.showMessage("The program exited", MessageSuccess)
	case errors.Is(err, schip.ErrAlreadyRunning):
		app.showMessage("Stop the console first", MessageWarning)
	default:
		app.showMessage(err.Error(), MessageError)
	}
}

func (app *ConsoleApp) handleKeyPress() {
	app.Cpu.Keypad.Set(schip.StateOf(app.keyboardLookupMap, rl.IsKeyDown))
}

// updateCpuSpeed restarts a running console once the slider is let go
func (app *ConsoleApp) updateCpuSpeed() {
	if !app.Cpu.IsRunning() || int(app.speed) == app.Cpu.SpeedInHz() {
		return
	}
	if !rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		return
	}

	app.stop()
	app.start()
}

const (
	MinSpeed = float32(schip.MinSpeed)
	MaxSpeed = float32(schip.MaxSpeed)
)

func (app *ConsoleApp) drawToolbar() {
	rl.DrawRectangle(0, 0, int32(rl.GetScreenWidth()), ToolbarHeight, rl.Gray)

	app.startBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*0, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_PLAY, "Start"),
	)
	app.stopBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*1, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_STOP, "Stop"),
	)
	app.stepBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*2, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_NEXT, "Step"),
	)
	app.restBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*3, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_ROTATE, "Reset"),
	)

	state := "Stopped"
	if app.Cpu.IsRunning() {
		state = "Running"
	}
	if app.beeping {
		state += " *beep*"
	}
	gui.Label(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*4, ToolbarGap, ToolbarBtnWidth*2, ToolbarBtnHeight),
		state,
	)

	gui.Label(
		rl.NewRectangle(WindowWidth-ToolbarGap-150, 26, 70, 20),
		fmt.Sprintf("%d Hz", int(app.speed)),
	)

	if gui.Button(
		rl.NewRectangle(WindowWidth-ToolbarGap-150+70, 26, 30, 20),
		gui.IconText(gui.ICON_ROTATE, ""),
	) {
		app.speed = float32(schip.DefaultSpeed)
	}

	app.speed = gui.Slider(
		rl.NewRectangle(WindowWidth-ToolbarGap-150, ToolbarGap, 100, 20),
		"", "",
		app.speed,
		MinSpeed,
		MaxSpeed,
	)
}

func (app *ConsoleApp) showMessage(msg string, mType MessageType) {
	app.lastMessage = msg
	switch mType {
	case MessageInfo:
		app.lastMessageColor = MessageBarInfoColor

	case MessageSuccess:
		app.lastMessageColor = MessageBarSuccessColor

	case MessageWarning:
		app.lastMessageColor = MessageBarWarningColor

	case MessageError:
		app.lastMessageColor = MessageBarErrorColor
	}
}

func (app *ConsoleApp) drawMessageBar() {
	rl.DrawRectangle(
		0,
		WindowHeight-MessageBarHeigh,
		WindowWidth,
		MessageBarHeigh,
		MessageBarBgColor,
	)

	rl.DrawText(
		app.lastMessage,
		MessageBarGap,
		WindowHeight-MessageBarHeigh+MessageBarGap,
		16,
		app.lastMessageColor,
	)
}

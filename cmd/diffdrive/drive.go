package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/diffdrive/pkg/drive"
	"github.com/gwillem/diffdrive/pkg/robot"
	"github.com/gwillem/diffdrive/pkg/teleop"
)

type DriveCommand struct {
	Hz       int  `long:"hz" description:"Control loop frequency (overrides the config file)"`
	Sim      bool `long:"sim" description:"Drive simulated motors with the keyboard"`
	Keyboard bool `long:"keyboard" description:"Use the arrow keys instead of a joystick"`
	NoSafety bool `long:"no-safety" description:"Disable the motor safety watchdog"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
	stickStep    = 0.25
)

// Output colors per side
var sideColors = map[robot.Side]string{
	robot.Left:  "46",  // green
	robot.Right: "201", // magenta
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	enabledStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	disabledStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

type driveModel struct {
	ctrl     *teleop.Controller
	stick    *joystick
	chart    *streamlinechart.Model
	width    int      // terminal width
	height   int      // terminal height
	logs     []string // last N log messages
	quitting bool
	fatal    error

	state          teleop.State
	stickX, stickY float64
}

func (m *driveModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the controller
type stateMsg teleop.State
type logMsg string
type fatalMsg struct{ err error }

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *driveModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *driveModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialDriveModel(ctrl *teleop.Controller, stick *joystick) driveModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-1, 1),
	)

	for side, color := range sideColors {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		chart.SetDataSetStyles(side.String(), runes.ThinLineStyle, style)
	}

	return driveModel{
		ctrl:  ctrl,
		stick: stick,
		chart: &chart,
	}
}

func (m driveModel) Init() tea.Cmd {
	return waitForState(m.ctrl)
}

func (m driveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case " ", "enter":
			m.ctrl.Toggle()
		case "up":
			m.moveStick(0, -stickStep) // forward is negative Y
		case "down":
			m.moveStick(0, stickStep)
		case "left":
			m.moveStick(-stickStep, 0)
		case "right":
			m.moveStick(stickStep, 0)
		case "x":
			m.centerStick()
		}
		return m, nil

	case stateMsg:
		m.state = teleop.State(msg)
		m.chart.PushDataSet(robot.Left.String(), m.state.Left)
		m.chart.PushDataSet(robot.Right.String(), m.state.Right)
		m.chart.DrawAll()
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, nil

	case fatalMsg:
		m.fatal = msg.err
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *driveModel) moveStick(dx, dy float64) {
	if m.stick.static == nil {
		return
	}
	m.stickX = drive.Clamp(m.stickX + dx)
	m.stickY = drive.Clamp(m.stickY + dy)
	m.stick.static.Set(m.stickX, m.stickY)
}

func (m *driveModel) centerStick() {
	if m.stick.static == nil {
		return
	}
	m.stickX, m.stickY = 0, 0
	m.stick.static.Set(0, 0)
}

func (m driveModel) View() string {
	if m.quitting {
		return "Driving stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("diffdrive"))
	sb.WriteString(fmt.Sprintf(" - %d Hz  ", m.ctrl.Hz()))
	if m.state.Enabled {
		sb.WriteString(enabledStyle.Render("ENABLED"))
	} else {
		sb.WriteString(disabledStyle.Render("DISABLED"))
	}
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  speed %+.2f  rotation %+.2f  left %+.2f  right %+.2f",
		m.state.Input.Speed, m.state.Input.Rotation, m.state.Left, m.state.Right)))
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9")) // bright red

	var logLines string
	if len(m.logs) == 0 {
		help := "space: enable/disable  q: quit"
		if m.stick.static != nil {
			help += "  arrows: move stick  x: center"
		}
		logLines = statusStyle.Render(help)
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	var items []string
	for _, side := range []robot.Side{robot.Left, robot.Right} {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(sideColors[side])).Bold(true)
		item := colorStyle.Render("━━") + " " + side.String() + " leader"
		items = append(items, item)
	}
	return strings.Join(items, "  ")
}

func (c *DriveCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.Sim)
	if err != nil {
		return err
	}
	if c.Sim {
		cfg.Backend = robot.BackendSim
	}
	if c.Hz > 0 {
		cfg.Drive.Hz = c.Hz
	}
	if c.NoSafety {
		cfg.Drive.SafetyEnabled = false
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	sink := teleop.NewLogSink(32)
	logger := newLogger(sink.Core(logLevel()))
	defer logger.Sync()

	hw, err := openHardware(cfg, logger)
	if err != nil {
		return errors.Wrap(err, "open motors")
	}
	defer hw.Close()

	stick, err := openJoystick(cfg, c.Sim || c.Keyboard)
	if err != nil {
		return errors.Wrap(err, "open joystick")
	}
	defer stick.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if hid, ok := stick.Joystick.(interface{ Run(context.Context) }); ok {
		go hid.Run(ctx)
	}

	ctrl, err := teleop.NewController(teleop.Config{
		Robot:   teleop.NewRobotFromConfig(cfg, hw, stick, logger),
		Hz:      cfg.Drive.Hz,
		Toggles: stick.toggles,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(initialDriveModel(ctrl, stick), tea.WithAltScreen())

	// Start controller in background
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			p.Send(fatalMsg{err: err})
		}
	}()
	go func() {
		for line := range sink.Lines() {
			p.Send(logMsg(line))
		}
	}()

	final, err := p.Run()
	cancel()
	<-done
	return finishDrive(final, err, os.Stderr)
}

var errRobotFailed = errors.New("robot failed to start")

// finishDrive turns the outcome of the terminal UI into the command result.
// Deferred cleanup in Execute still runs, so the bus is released and the
// log file flushed before the process exits.
func finishDrive(final tea.Model, runErr error, w io.Writer) error {
	if runErr != nil {
		return errors.Wrap(runErr, "run terminal UI")
	}
	if fm, ok := final.(driveModel); ok && fm.fatal != nil {
		reportFatal(w, fm.fatal)
		return errRobotFailed
	}
	return nil
}

// reportFatal prints a startup failure for the operator. Configuration
// failures are listed per motor.
func reportFatal(w io.Writer, err error) {
	fmt.Fprintln(w, disabledStyle.Render("Motors are in an unknown state:"))
	if ces := robot.ConfigurationErrors(errors.Cause(err)); len(ces) > 0 {
		for _, ce := range ces {
			fmt.Fprintf(w, "  %s\n", ce)
		}
		return
	}
	fmt.Fprintf(w, "  %v\n", err)
}

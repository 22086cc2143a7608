package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/pkg/errors"
	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/gwillem/diffdrive/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	drivetrainMotors = 4
	maxScanID        = 10
	spinVelocity     = 400
	spinTime         = 700 * time.Millisecond
)

type SetupCommand struct {
	Port string `long:"port" description:"Serial port of the motor bus (skips scanning)"`
}

func (c *SetupCommand) Execute(args []string) error {
	logger := newLogger()
	defer logger.Sync()

	fmt.Println(headerStyle.Render("diffdrive setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━"))
	fmt.Println()

	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	// Step 1: Find the bus
	bus := findBus(c.Port, logger)
	if bus == nil {
		fmt.Println("No motor bus with four motors found.")
		fmt.Println("Make sure the robot is connected and powered on.")
		os.Exit(1)
	}
	defer bus.bus.Close()

	// Step 2: Identify wheels
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Identifying Wheels ━━━"))
	fmt.Println("Lift the robot so the wheels can turn freely.")
	fmt.Println()

	ids, err := identifyWheels(bus)
	if err != nil {
		return err
	}

	cfg.Backend = robot.BackendFeetech
	cfg.Port = bus.port
	cfg.Motors = ids
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "resulting configuration is invalid")
	}
	if err := cfg.SaveTo(opts.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Start driving with: " + headerStyle.Render("diffdrive drive"))

	return nil
}

type busInfo struct {
	port   string
	servos []feetech.FoundServo
	bus    *feetech.Bus
}

func findBus(port string, logger *zap.SugaredLogger) *busInfo {
	var ports []string
	if port != "" {
		ports = []string{port}
	} else {
		fmt.Println("Scanning for the motor bus...")
		var err error
		ports, err = serial.GetPortsList()
		if err != nil {
			logger.Errorw("failed to list serial ports", "error", err)
			return nil
		}
	}

	for _, p := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(p, "Bluetooth") {
			continue
		}

		bus, servos, err := connectToBus(p)
		if err != nil {
			logger.Debugw("no drivetrain on port", "port", p, "error", err)
			continue
		}
		fmt.Printf("  Found %d motors on %s\n", len(servos), p)
		return &busInfo{port: p, servos: servos, bus: bus}
	}
	return nil
}

func connectToBus(port string) (*feetech.Bus, []feetech.FoundServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	servos, err := bus.Scan(ctx, 1, maxScanID)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}
	if len(servos) != drivetrainMotors {
		bus.Close()
		return nil, nil, errors.Errorf("found %d motors, expected %d", len(servos), drivetrainMotors)
	}
	return bus, servos, nil
}

// identifyWheels spins each motor in turn and asks which wheel moved.
func identifyWheels(b *busInfo) (robot.MotorIDs, error) {
	remaining := []robot.MotorName{robot.LeftFront, robot.LeftRear, robot.RightFront, robot.RightRear}
	assigned := make(map[robot.MotorName]int, drivetrainMotors)

	for _, s := range b.servos {
		if err := spin(b, s); err != nil {
			return robot.MotorIDs{}, errors.Wrapf(err, "spin motor %d", s.ID)
		}

		var options []huh.Option[string]
		for _, name := range remaining {
			options = append(options, huh.NewOption(wheelLabel(name), string(name)))
		}

		var choice string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(fmt.Sprintf("Which wheel did motor %d turn?", s.ID)).
					Description("The wheel that just spun").
					Options(options...).
					Value(&choice),
			),
		)
		if err := form.Run(); err != nil {
			fmt.Println()
			os.Exit(0)
		}

		name := robot.MotorName(choice)
		assigned[name] = s.ID
		remaining = without(remaining, name)
	}

	return robot.MotorIDs{
		LeftLeader:    assigned[robot.LeftFront],
		LeftFollower:  assigned[robot.LeftRear],
		RightLeader:   assigned[robot.RightFront],
		RightFollower: assigned[robot.RightRear],
	}, nil
}

func spin(b *busInfo, s feetech.FoundServo) error {
	ctx := context.Background()
	servo := feetech.NewServo(b.bus, s.ID, s.Model)

	if err := servo.Disable(ctx); err != nil {
		return err
	}
	if err := servo.SetOperatingMode(ctx, feetech.ModeVelocity); err != nil {
		return err
	}
	if err := servo.Enable(ctx); err != nil {
		return err
	}

	fmt.Printf("\n  Spinning motor %d...\n", s.ID)
	if err := servo.SetVelocity(ctx, spinVelocity); err != nil {
		return err
	}
	time.Sleep(spinTime)
	if err := servo.SetVelocity(ctx, 0); err != nil {
		return err
	}
	return servo.Disable(ctx)
}

func wheelLabel(name robot.MotorName) string {
	switch name {
	case robot.LeftFront:
		return "Left front (left leader)"
	case robot.LeftRear:
		return "Left rear (left follower)"
	case robot.RightFront:
		return "Right front (right leader)"
	case robot.RightRear:
		return "Right rear (right follower)"
	default:
		return string(name)
	}
}

func without(names []robot.MotorName, drop robot.MotorName) []robot.MotorName {
	out := names[:0:0]
	for _, n := range names {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}

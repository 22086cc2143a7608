package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Config  string `short:"c" long:"config" default:"diffdrive.json" description:"Configuration file"`
	LogFile string `long:"log-file" description:"Also write logs to this file, rotated by size"`
	Verbose bool   `short:"v" long:"verbose" description:"Log debug messages"`

	Setup SetupCommand `command:"setup" description:"Scan for the motor bus and identify the wheels"`
	Drive DriveCommand `command:"drive" alias:"teleop" description:"Drive the robot with the joystick"`
	Info  InfoCommand  `command:"info" description:"Show the motor layout and configuration"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "diffdrive - joystick control for a four-motor differential-drive robot"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

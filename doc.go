// Package diffdrive provides joystick control for a four-motor
// differential-drive robot.
//
// Each side of the robot has a front motor that leads and a rear motor that
// follows it electrically. Two joystick axes are shaped (deadband and a
// squared response curve) and mixed into left and right commands with arcade
// drive, and a motor-safety watchdog stops the robot when commands stop
// arriving.
//
// # Installation
//
//	go install github.com/gwillem/diffdrive/cmd/diffdrive@latest
//
// # Usage
//
// First, run setup to find the motor bus and identify each wheel:
//
//	diffdrive setup
//
// Then drive, pressing space (or joystick button 1) to enable:
//
//	diffdrive drive
//
// Without hardware, drive simulated motors with the arrow keys:
//
//	diffdrive drive --sim
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/diffdrive: CLI with setup, drive and info commands
//   - pkg/robot: Motor layout, leader/follower configuration, motor buses
//   - pkg/drive: Input shaping, arcade drive and the safety watchdog
//   - pkg/input: Joystick input
//   - pkg/teleop: Robot lifecycle hooks and the control loop
package diffdrive

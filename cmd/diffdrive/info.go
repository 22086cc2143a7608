package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/diffdrive/pkg/robot"
)

type InfoCommand struct{}

func (c *InfoCommand) Execute(args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render("diffdrive"))
	fmt.Printf("Backend: %s", cfg.Backend)
	if cfg.Port != "" {
		fmt.Printf(" on %s", cfg.Port)
	}
	fmt.Println()
	fmt.Printf("Loop: %d Hz, deadband %.2f, max output %.2f\n", cfg.Drive.Hz, cfg.Drive.Deadband, cfg.Drive.MaxOutput)
	if cfg.Drive.SafetyEnabled {
		fmt.Printf("Motor safety: on, %s timeout\n", time.Duration(cfg.Drive.SafetyTimeout))
	} else {
		fmt.Println("Motor safety: off")
	}
	fmt.Println()

	layout := cfg.Layout()
	fmt.Println(renderLayout(layout))

	if err := cfg.Validate(); err != nil {
		fmt.Println(disabledStyle.Render("Configuration invalid: " + err.Error()))
	}
	return nil
}

func renderLayout(layout robot.Layout) string {
	headerCell := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	nameCell := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, 4)
	for _, m := range layout.All() {
		rows = append(rows, []string{
			string(m.Name),
			m.Side.String(),
			m.Role.String(),
			strconv.Itoa(m.ID),
			robot.ConfigFor(m).String(),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Motor", "Side", "Role", "ID", "Configuration").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCell
			case col == 0:
				return nameCell
			default:
				return cell
			}
		}).
		Render()
}

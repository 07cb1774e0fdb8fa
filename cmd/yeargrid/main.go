// Command yeargrid prints the week grid of a year and the parts of a
// DD/MM/YYYY date token.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"pmtrack/internal/calendar"
)

func newRootCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "yeargrid <year> <DD/MM/YYYY>",
		Short:         "Print the week grid of a year and parse a date token",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("year %q is not a number", args[0])
			}
			grid, err := calendar.BuildYearGrid(year)
			if err != nil {
				return err
			}
			tok, err := calendar.ParseDateToken(args[1])
			if err != nil {
				return err
			}
			return calendar.WriteReport(out, grid, tok)
		},
	}
	cmd.SetOut(out)
	return cmd
}

func main() {
	cmd := newRootCmd(os.Stdout)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "yeargrid:", err)
		os.Exit(1)
	}
}

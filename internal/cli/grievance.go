package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/welfare-desk/internal/scheme"
)

func init() {
	cmd := &cobra.Command{
		Use:   "grievance [description]",
		Short: "Route a complaint to the right department",
		Long:  "Classify a grievance. The description can be a positional arg or piped via stdin.",
		Run:   runGrievance,
	}

	RootCmd.AddCommand(cmd)
}

func runGrievance(cmd *cobra.Command, args []string) {
	var description string
	if len(args) > 0 {
		description = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			description = string(b)
		}
	}
	description = strings.TrimSpace(description)
	if description == "" {
		exitErr("grievance", fmt.Errorf("description is required (positional arg or stdin)"))
	}

	svc, done := newService(cmd.Context())
	defer done()

	res, err := svc.ClassifyGrievance(cmd.Context(), description, language())
	if err != nil {
		warnService(err)
		res = &scheme.Grievance{}
	}

	if textOutput() {
		fmt.Printf("Department: %s\nUrgency:    %s\nSummary:    %s\nAction:     %s\n",
			res.Department, res.Urgency, res.FormalSummary, res.RequestedAction)
		return
	}
	printJSON(res)
}

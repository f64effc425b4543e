package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/welfare-desk/internal/model"
	"github.com/rcliao/welfare-desk/internal/scheme"
)

func init() {
	cmd := &cobra.Command{
		Use:   "eligibility <scheme name>",
		Short: "Check the session's profile against a scheme's criteria",
		Args:  cobra.MinimumNArgs(1),
		Run:   runEligibility,
	}

	RootCmd.AddCommand(cmd)
}

func runEligibility(cmd *cobra.Command, args []string) {
	name := strings.TrimSpace(strings.Join(args, " "))
	ctx := cmd.Context()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	session := resolveSession(ctx, s)
	p := loadProfile(ctx, s, session)
	s.Close()
	if p == nil {
		p = model.NewProfile(session)
	}

	svc, done := newService(ctx)
	defer done()

	res, err := svc.EvaluateEligibility(ctx, p, name, language())
	if err != nil {
		warnService(err)
		res = &scheme.Eligibility{DocumentsVerified: []string{}}
	}

	if textOutput() {
		verdict := "Not eligible"
		if res.IsEligible {
			verdict = "Eligible"
		}
		fmt.Printf("%s: %s\n%s\n", name, verdict, res.EvaluationReason)
		if res.PotentialBenefits != "" {
			fmt.Printf("Benefits: %s\n", res.PotentialBenefits)
		}
		return
	}
	printJSON(res)
}

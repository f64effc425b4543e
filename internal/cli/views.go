package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/welfare-desk/internal/dashboard"
	"github.com/rcliao/welfare-desk/internal/status"
)

func init() {
	roadmapCmd := &cobra.Command{
		Use:   "roadmap",
		Short: "Show the five-step roadmap of every active application",
		Run:   runRoadmap,
	}
	docsCmd := &cobra.Command{
		Use:   "docs",
		Short: "Show document readiness",
		Run:   runDocs,
	}
	dashboardCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the full dashboard summary",
		Run:   runDashboard,
	}

	RootCmd.AddCommand(roadmapCmd, docsCmd, dashboardCmd)
}

func runRoadmap(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	session := resolveSession(cmd.Context(), s)
	summary := dashboard.Build(session, loadProfile(cmd.Context(), s, session))

	if textOutput() {
		for _, app := range summary.Applications {
			fmt.Printf("%s (%s)\n", app.SchemeName, app.RefNumber)
			for _, step := range app.Roadmap {
				fmt.Printf("  %d. %-10s %s\n", step.Index+1, step.Label, step.Status)
			}
		}
		return
	}
	printJSON(summary.Applications)
}

func runDocs(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	session := resolveSession(cmd.Context(), s)
	readiness := status.Readiness(loadProfile(cmd.Context(), s, session))

	if textOutput() {
		for _, d := range readiness {
			fmt.Printf("%-24s %s\n", d.Label, d.Status)
		}
		return
	}
	printJSON(map[string]any{
		"documents": readiness,
		"counts":    status.Counts(readiness),
	})
}

func runDashboard(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	session := resolveSession(cmd.Context(), s)
	summary := dashboard.Build(session, loadProfile(cmd.Context(), s, session))

	if textOutput() {
		if err := summary.WriteText(os.Stdout); err != nil {
			exitErr("write dashboard", err)
		}
		return
	}
	printJSON(summary)
}

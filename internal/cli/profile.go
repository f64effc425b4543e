package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/welfare-desk/internal/model"
)

func init() {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Show, replace or delete the session's profile",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored profile",
		Run:   runProfileShow,
	}
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the profile with JSON read from stdin",
		Long: "Replace the profile with a JSON record read from stdin. The record is validated " +
			"before it is written; phone defaults to the session.",
		Run: runProfileSet,
	}
	rmCmd := &cobra.Command{
		Use:   "rm",
		Short: "Delete the stored profile",
		Run:   runProfileRm,
	}

	profileCmd.AddCommand(showCmd, setCmd, rmCmd)
	RootCmd.AddCommand(profileCmd)
}

func runProfileShow(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	session := resolveSession(cmd.Context(), s)
	p := loadProfile(cmd.Context(), s, session)
	if p == nil {
		p = model.NewProfile(session)
	}
	printJSON(p)
}

func runProfileSet(cmd *cobra.Command, args []string) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}
	p, err := model.DecodeProfile(data)
	if err != nil {
		exitErr("parse profile", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	session := resolveSession(cmd.Context(), s)
	for _, app := range unknownStatuses(p) {
		logger.Warn("unknown application status", zap.String("scheme", app.SchemeName), zap.String("status", string(app.Status)))
		fmt.Fprintf(os.Stderr, "warning: %s has unknown status %q; it will show as Applied\n", app.SchemeName, app.Status)
	}
	if p.Phone == "" {
		p.Phone = session
	}
	if err := s.Set(cmd.Context(), session, p); err != nil {
		if warnStorage("save profile", err) {
			return
		}
		exitErr("save profile", err)
	}
	fmt.Printf(`{"ok":true,"session":%q}`+"\n", session)
}

// unknownStatuses returns the applications whose status is not a roadmap stage.
func unknownStatuses(p *model.Profile) []model.Application {
	var out []model.Application
	for _, app := range p.ActiveApplications {
		if !app.Status.Valid() {
			out = append(out, app)
		}
	}
	return out
}

func runProfileRm(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	session := resolveSession(cmd.Context(), s)
	if err := s.Delete(cmd.Context(), session); err != nil {
		exitErr("delete profile", err)
	}
	fmt.Printf(`{"ok":true,"session":%q}`+"\n", session)
}

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/welfare-desk/internal/model"
	"github.com/rcliao/welfare-desk/internal/reminder"
)

func init() {
	reminderCmd := &cobra.Command{
		Use:     "reminder",
		Aliases: []string{"reminders"},
		Short:   "Manage saved scheme reminders",
	}

	addCmd := &cobra.Command{
		Use:   "add <scheme name>",
		Short: "Save a scheme reminder",
		Long: "Save a reminder for a scheme with the documents to collect. Without --doc the " +
			"default checklist (Aadhar Card, Smart Card, Income Certificate) is used.",
		Args: cobra.MinimumNArgs(1),
		Run:  runReminderAdd,
	}
	addCmd.Flags().StringSlice("doc", nil, "Document needed (repeatable)")
	addCmd.Flags().Bool("force", false, "Save even if a reminder for this scheme exists")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a reminder",
		Args:  cobra.ExactArgs(1),
		Run:   runReminderRm,
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved reminders",
		Run:   runReminderList,
	}
	savedCmd := &cobra.Command{
		Use:   "saved <scheme name>",
		Short: "Check whether a scheme is already saved",
		Args:  cobra.MinimumNArgs(1),
		Run:   runReminderSaved,
	}

	reminderCmd.AddCommand(addCmd, rmCmd, listCmd, savedCmd)
	RootCmd.AddCommand(reminderCmd)
}

func runReminderAdd(cmd *cobra.Command, args []string) {
	name := strings.TrimSpace(strings.Join(args, " "))
	docs, _ := cmd.Flags().GetStringSlice("doc")
	force, _ := cmd.Flags().GetBool("force")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	svc := reminder.New(s)
	session := resolveSession(cmd.Context(), s)

	if !force {
		existing, err := svc.List(cmd.Context(), session)
		if err != nil && !warnStorage("list reminders", err) {
			exitErr("list reminders", err)
		}
		if reminder.IsSaved(existing, name) {
			exitErr("reminder add", fmt.Errorf("%q is already saved (use --force to save again)", name))
		}
	}

	if len(docs) == 0 {
		docs = nil
	}
	r, err := svc.Add(cmd.Context(), session, name, docs, time.Now())
	if err != nil {
		if warnStorage("save reminder", err) {
			return
		}
		exitErr("reminder add", err)
	}
	printJSON(r)
}

func runReminderRm(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	session := resolveSession(cmd.Context(), s)
	remaining, err := reminder.New(s).Delete(cmd.Context(), session, args[0])
	if err != nil {
		if warnStorage("delete reminder", err) {
			return
		}
		exitErr("reminder rm", err)
	}
	if remaining == nil {
		remaining = []model.Reminder{}
	}
	printJSON(remaining)
}

func runReminderList(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	session := resolveSession(cmd.Context(), s)
	reminders, err := reminder.New(s).List(cmd.Context(), session)
	if err != nil {
		if !warnStorage("list reminders", err) {
			exitErr("reminder list", err)
		}
		reminders = []model.Reminder{}
	}

	if textOutput() {
		for _, r := range reminders {
			fmt.Printf("%s  %s  saved %s  needs %s\n", r.ID, r.SchemeName, r.SavedDate, strings.Join(r.DocumentsNeeded, ", "))
		}
		return
	}
	printJSON(reminders)
}

func runReminderSaved(cmd *cobra.Command, args []string) {
	name := strings.TrimSpace(strings.Join(args, " "))

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	session := resolveSession(cmd.Context(), s)
	reminders, err := reminder.New(s).List(cmd.Context(), session)
	if err != nil && !warnStorage("list reminders", err) {
		exitErr("reminder saved", err)
	}
	fmt.Printf(`{"scheme":%q,"saved":%t}`+"\n", name, reminder.IsSaved(reminders, name))
}

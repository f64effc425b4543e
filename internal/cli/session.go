package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Log in, log out and inspect the current session",
	}

	loginCmd := &cobra.Command{
		Use:   "login <phone>",
		Short: "Make a phone number the current session",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionLogin,
	}
	currentCmd := &cobra.Command{
		Use:   "current",
		Short: "Show the current session",
		Run:   runSessionCurrent,
	}
	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear the current session; profiles are kept",
		Run:   runSessionLogout,
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every session with a stored profile",
		Run:   runSessionList,
	}

	sessionCmd.AddCommand(loginCmd, currentCmd, logoutCmd, listCmd)
	RootCmd.AddCommand(sessionCmd)
}

func runSessionLogin(cmd *cobra.Command, args []string) {
	phone := strings.TrimSpace(args[0])

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.SetCurrentSession(cmd.Context(), phone); err != nil {
		exitErr("login", err)
	}
	p := loadProfile(cmd.Context(), s, phone)

	fmt.Printf(`{"ok":true,"session":%q,"hasProfile":%t}`+"\n", phone, p != nil)
}

func runSessionCurrent(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	cur, err := s.CurrentSession(cmd.Context())
	if err != nil {
		exitErr("current session", err)
	}
	if textOutput() {
		if cur == "" {
			fmt.Println("not logged in")
			return
		}
		fmt.Println(cur)
		return
	}
	fmt.Printf(`{"session":%q}`+"\n", cur)
}

func runSessionLogout(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.ClearCurrentSession(cmd.Context()); err != nil {
		exitErr("logout", err)
	}
	fmt.Println(`{"ok":true}`)
}

func runSessionList(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sessions, err := s.List(cmd.Context())
	if err != nil {
		exitErr("list sessions", err)
	}
	if textOutput() {
		for _, info := range sessions {
			fmt.Printf("%s\t%s\n", info.Session, info.UpdatedAt)
		}
		return
	}
	printJSON(sessions)
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/welfare-desk/internal/reminder"
	"github.com/rcliao/welfare-desk/internal/scheme"
)

func init() {
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search Tamil Nadu welfare schemes",
		Long: "Ask the scheme service for schemes matching a free-text need. Scheme names found " +
			"in the answer are listed and marked when already saved as reminders.",
		Args: cobra.MinimumNArgs(1),
		Run:  runSearch,
	}

	centersCmd := &cobra.Command{
		Use:   "centers",
		Short: "Find E-Sevai centres and Tahsildar offices near a location",
		Run:   runCenters,
	}
	centersCmd.Flags().Float64("lat", 0, "Latitude (required)")
	centersCmd.Flags().Float64("lng", 0, "Longitude (required)")
	centersCmd.MarkFlagRequired("lat")
	centersCmd.MarkFlagRequired("lng")

	suggestCmd := &cobra.Command{
		Use:   "suggest <situation>",
		Short: "Describe a situation and get matching scheme suggestions",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSuggest,
	}

	RootCmd.AddCommand(searchCmd, centersCmd, suggestCmd)
}

type schemeHit struct {
	Name  string `json:"name"`
	Saved bool   `json:"saved"`
}

type searchOutput struct {
	*scheme.SearchResult
	Schemes []schemeHit `json:"schemes"`
}

func runSearch(cmd *cobra.Command, args []string) {
	query := strings.Join(args, " ")
	ctx := cmd.Context()

	svc, done := newService(ctx)
	defer done()

	res, err := svc.Search(ctx, query, language())
	if err != nil {
		warnService(err)
		res = &scheme.SearchResult{Sources: []scheme.Source{}}
	}

	// Saved markers are best effort; search works without a session.
	saved := map[string]bool{}
	if s, err := openStore(); err == nil {
		if session, err := pickSession(ctx, s, sessionFlag); err == nil {
			if reminders, err := reminder.New(s).List(ctx, session); err == nil {
				saved = reminder.SavedNames(reminders)
			}
		}
		s.Close()
	}

	out := searchOutput{SearchResult: res, Schemes: []schemeHit{}}
	for _, name := range scheme.ExtractSchemeNames(res.Text) {
		out.Schemes = append(out.Schemes, schemeHit{Name: name, Saved: saved[name]})
	}

	if textOutput() {
		fmt.Println(res.Text)
		printSources(res.Sources)
		for _, h := range out.Schemes {
			mark := " "
			if h.Saved {
				mark = "*"
			}
			fmt.Printf("[%s] %s\n", mark, h.Name)
		}
		return
	}
	printJSON(out)
}

func runCenters(cmd *cobra.Command, args []string) {
	lat, _ := cmd.Flags().GetFloat64("lat")
	lng, _ := cmd.Flags().GetFloat64("lng")

	svc, done := newService(cmd.Context())
	defer done()

	res, err := svc.NearbyCenters(cmd.Context(), lat, lng, language())
	if err != nil {
		warnService(err)
		res = &scheme.SearchResult{Sources: []scheme.Source{}}
	}

	if textOutput() {
		fmt.Println(res.Text)
		printSources(res.Sources)
		return
	}
	printJSON(res)
}

func runSuggest(cmd *cobra.Command, args []string) {
	situation := strings.Join(args, " ")

	svc, done := newService(cmd.Context())
	defer done()

	text, err := svc.Suggest(cmd.Context(), situation, language())
	if err != nil {
		warnService(err)
	}

	if textOutput() {
		fmt.Println(text)
		return
	}
	fmt.Printf(`{"text":%q}`+"\n", text)
}

func printSources(sources []scheme.Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for _, src := range sources {
		fmt.Printf("  %s  %s\n", src.Title, src.URL)
	}
}

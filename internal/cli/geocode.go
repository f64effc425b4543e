package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/welfare-desk/internal/model"
	"github.com/rcliao/welfare-desk/internal/scheme"
)

func init() {
	cmd := &cobra.Command{
		Use:   "geocode",
		Short: "Resolve coordinates to a Tamil Nadu district, taluk, village and pincode",
		Run:   runGeocode,
	}

	cmd.Flags().Float64("lat", 0, "Latitude (required)")
	cmd.Flags().Float64("lng", 0, "Longitude (required)")
	cmd.Flags().Bool("save", false, "Store the result as the session's permanent address")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lng")

	RootCmd.AddCommand(cmd)
}

func runGeocode(cmd *cobra.Command, args []string) {
	lat, _ := cmd.Flags().GetFloat64("lat")
	lng, _ := cmd.Flags().GetFloat64("lng")
	save, _ := cmd.Flags().GetBool("save")
	ctx := cmd.Context()

	svc, done := newService(ctx)
	defer done()

	loc, err := svc.Geocode(ctx, lat, lng, language())
	if err != nil {
		warnService(err)
		printJSON(&scheme.Location{})
		return
	}

	if save {
		s, err := openStore()
		if err != nil {
			exitErr("open store", err)
		}
		defer s.Close()

		session := resolveSession(ctx, s)
		_, err = s.Update(ctx, session, func(p *model.Profile) error {
			p.PermAddress = mergeAddress(p.PermAddress, loc.Address())
			return nil
		})
		if err != nil && !warnStorage("save address", err) {
			exitErr("save address", err)
		}
	}
	printJSON(loc)
}

// mergeAddress overlays the resolved fields onto an existing address, keeping
// the door and street the model cannot know.
func mergeAddress(old, resolved *model.Address) *model.Address {
	if old == nil {
		return resolved
	}
	out := *old
	if resolved.Village != "" {
		out.Village = resolved.Village
	}
	if resolved.Taluk != "" {
		out.Taluk = resolved.Taluk
	}
	if resolved.District != "" {
		out.District = resolved.District
	}
	if resolved.Pincode != "" {
		out.Pincode = resolved.Pincode
	}
	return &out
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	plannererrors "github.com/signalsfoundry/kavach-slot-planner/internal/errors"
	"github.com/signalsfoundry/kavach-slot-planner/internal/logging"
	"github.com/signalsfoundry/kavach-slot-planner/internal/store"
	"github.com/signalsfoundry/kavach-slot-planner/model"
)

func newApprovedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approved",
		Short: "Manage the approved-station registry",
	}
	cmd.AddCommand(
		newApprovedListCmd(a),
		newApprovedShowCmd(a),
		newApprovedAddCmd(a),
		newApprovedImportCmd(a),
		newApprovedExportCmd(a),
	)
	return cmd
}

func newApprovedListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored stations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			stations, err := st.List(ctx)
			if err != nil {
				return plannererrors.StoreError("list", err)
			}
			if len(stations) == 0 {
				fmt.Fprintln(a.stdout, "No stations found. Import some with: slotplanner approved import <file>")
				return nil
			}

			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCODE\tFREQ\tLAT\tLONG\tRADIUS\tSTATUS")
			fmt.Fprintln(w, "----\t----\t----\t---\t----\t------\t------")
			for _, s := range stations {
				freq := "-"
				if s.Frequency.IsAllocated() {
					freq = s.Frequency.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4f\t%g\t%s\n",
					s.Name, s.StationCode, freq, s.Latitude, s.Longitude, s.SafeRadiusKm, s.Status)
			}
			return w.Flush()
		},
	}
}

func newApprovedShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show one stored station as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			s, err := st.Get(ctx, args[0])
			if errors.Is(err, store.ErrStationNotFound) {
				msg := fmt.Sprintf("station %q not found", args[0])
				if hints, herr := st.Suggest(ctx, args[0]); herr == nil && len(hints) > 0 {
					msg += "; did you mean " + strings.Join(hints, ", ") + "?"
				}
				return plannererrors.InputError(msg, err)
			}
			if err != nil {
				return plannererrors.StoreError("get", err)
			}
			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		},
	}
}

func newApprovedAddCmd(a *app) *cobra.Command {
	var (
		s         store.Station
		frequency int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update a station in the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s.Frequency = model.FrequencyID(frequency)
			if s.Status == "" {
				s.Status = store.StatusApproved
			}
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Upsert(ctx, s); err != nil {
				if errors.Is(err, store.ErrInvalidStation) {
					return plannererrors.InputError("invalid station", err)
				}
				return plannererrors.StoreError("upsert", err)
			}
			a.log.Info(ctx, "station saved", logging.String("station", s.Name), logging.Int("frequency", frequency))
			fmt.Fprintf(a.stdout, "Saved %s\n", s.Name)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&s.Name, "name", "", "station name")
	f.Float64Var(&s.Latitude, "lat", 0, "latitude in degrees")
	f.Float64Var(&s.Longitude, "lon", 0, "longitude in degrees")
	f.Float64Var(&s.SafeRadiusKm, "radius", model.DefaultSafeRadiusKm, "safe radius in km")
	f.IntVar(&frequency, "frequency", 0, "committed frequency (0 = none)")
	f.StringVar(&s.Status, "status", store.StatusApproved, "approved or pending")
	f.StringVar(&s.StationCode, "code", "", "station code")
	f.StringVar(&s.KavachID, "kavach-id", "", "stationary Kavach unit id")
	f.StringVar(&s.AreaType, "area-type", "", "zone or area type")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newApprovedImportCmd(a *app) *cobra.Command {
	var radius float64
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import stations from a Kavach ID keyed lookup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return plannererrors.InputError("failed to open lookup file", err)
			}
			defer f.Close()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if !cmd.Flags().Changed("radius") {
				radius = a.cfg.Store.ImportSafeRadiusKm
			}
			res, err := st.ImportLookup(ctx, f, radius)
			if err != nil {
				return plannererrors.StoreError("import", err)
			}
			fmt.Fprintf(a.stdout, "Imported %d station(s), skipped %d existing\n", res.Inserted, res.Skipped)
			return nil
		},
	}
	cmd.Flags().Float64Var(&radius, "radius", 0, "safe radius for imported stations (default store.import_safe_radius_km)")
	return cmd
}

func newApprovedExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Export all stations as JSON (use - for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			var w io.Writer = a.stdout
			if args[0] != "-" {
				f, err := os.Create(args[0])
				if err != nil {
					return plannererrors.InputError("failed to create export file", err)
				}
				defer f.Close()
				w = f
			}
			if err := st.Export(ctx, w); err != nil {
				return plannererrors.StoreError("export", err)
			}
			return nil
		},
	}
}

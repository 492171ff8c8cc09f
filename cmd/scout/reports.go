package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newReportsCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List archived account plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := openReports(*configPath)
			if err != nil {
				return err
			}
			defer rs.Close()

			reports, err := rs.ListReports(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCOMPANY\tGOALS\tCREATED")
			for _, r := range reports {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Company, r.Goals, r.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of reports")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived plan as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := openReports(*configPath)
			if err != nil {
				return err
			}
			defer rs.Close()

			r, err := rs.GetReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), r.Plan.Markdown(r.Company))
			return nil
		},
	})
	return cmd
}

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nstehr/bastion/bastion-core/rules"
)

var doctrinesCmd = &cobra.Command{
	Use:   "doctrines",
	Short: "List and inspect doctrines",
}

var doctrinesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in doctrines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tRATIONALE")
		for _, name := range rules.ProfileNames() {
			d, _ := rules.Lookup(name)
			fmt.Fprintf(w, "%s\t%s\n", d.Name, d.Rationale)
		}
		return w.Flush()
	},
}

var showFile string

var doctrinesShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print a doctrine as YAML, after validation",
	Long: `Prints every parameter of a built-in doctrine, or of a YAML doctrine file
once its omitted keys are filled in and out-of-range values clamped.

Examples:
  bastion doctrines show rush
  bastion doctrines show --file mine.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var d rules.Doctrine
		switch {
		case showFile != "":
			var err error
			if d, err = rules.LoadDoctrineFile(showFile); err != nil {
				return err
			}
		case len(args) == 1:
			var ok bool
			if d, ok = rules.Lookup(args[0]); !ok {
				return fmt.Errorf("unknown doctrine: %s", args[0])
			}
		default:
			d = rules.DefaultDoctrine()
		}

		raw, err := rules.MarshalDoctrine(d)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(raw)
		return err
	},
}

func init() {
	doctrinesShowCmd.Flags().StringVar(&showFile, "file", "", "YAML doctrine file to validate and print")
	doctrinesCmd.AddCommand(doctrinesListCmd, doctrinesShowCmd)
	rootCmd.AddCommand(doctrinesCmd)
}

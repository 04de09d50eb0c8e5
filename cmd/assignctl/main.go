package main

import (
	"assignment_desk/internal/app/service"
	"assignment_desk/internal/app/store"
	"assignment_desk/internal/platform/config"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var driver string

	rootCmd := &cobra.Command{
		Use:           "assignctl",
		Short:         "Assignment desk administration CLI",
		Long:          `Maintenance commands for the assignment desk store, configured from the same environment as the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "store driver, overrides STORE_DRIVER")

	openStore := func(ctx context.Context) (*store.Store, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		if driver != "" {
			cfg.StoreDriver = driver
		}
		return store.Open(ctx, cfg)
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s store is up to date\n", st.Driver)
			return nil
		},
	}

	var asJSON bool
	adminsCmd := &cobra.Command{
		Use:   "admins",
		Short: "List administrators who can be assigned tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			admins, err := service.NewUserService(st.Users).ListAdministrators(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(admins)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USERNAME\tFULL NAME\tID")
			for _, a := range admins {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Username, a.FullName, a.ID)
			}
			return tw.Flush()
		},
	}
	adminsCmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	rootCmd.AddCommand(migrateCmd, adminsCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Printf("ERROR: %v", err)
		os.Exit(1)
	}
}

package commands

import (
	"fmt"

	"property-service/internal/seed"

	"github.com/spf13/cobra"
)

// SeedCmd loads users and escalation rules from a YAML file
func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Create users, roles and escalation rules from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}

			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			res, err := seed.Apply(withContext(cmd), a.db, f, a.cfg.Auth.BcryptCost)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "users created: %d, roles granted: %d, rules created: %d\n",
				res.UsersCreated, res.RolesGranted, res.RulesCreated)
			return nil
		},
	}
}

package commands

import (
	"fmt"

	"property-service/internal/escalation"

	"github.com/spf13/cobra"
)

// EscalateCmd evaluates every active escalation rule once
func EscalateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "escalate",
		Short: "Evaluate active escalation rules and raise events",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			res, err := escalation.NewEvaluator(a.db).Run(withContext(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rules evaluated: %d, events created: %d, notifications sent: %d\n",
				res.RulesEvaluated, res.EventsCreated, res.NotificationsSent)
			return nil
		},
	}
}

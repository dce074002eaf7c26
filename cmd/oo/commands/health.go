package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand() *cobra.Command {
	var (
		service bool
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check API and service health",
		Example: `  # Basic reachability check
  oo health

  # Per-component service health
  oo health --service

  # Service performance metrics
  oo health --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newAPIClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			switch {
			case metrics:
				m, err := c.ServiceMetrics(ctx)
				if err != nil {
					return err
				}
				return printResult(m)

			case service:
				health, err := c.ServiceHealth(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printResult(health)
				}
				if health.Healthy {
					fmt.Println("all services healthy")
				} else {
					fmt.Println("some services unhealthy")
				}
				for name, component := range health.Components {
					state := "ok"
					if !component.Healthy {
						state = "unhealthy"
					}
					fmt.Printf("  %-20s %s  %s\n", name, state, component.Message)
				}
				return nil

			default:
				if !c.CheckHealth(ctx) {
					return fmt.Errorf("API at %s is not healthy", c.BaseURL())
				}
				if jsonOutput {
					return printResult(map[string]string{"status": "healthy"})
				}
				fmt.Printf("API at %s is healthy\n", c.BaseURL())
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&service, "service", false, "check per-component service health")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "fetch service performance metrics")

	return cmd
}

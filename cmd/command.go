package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmehdipour/micromdm-webhook/internal/mdm"
	"github.com/jmehdipour/micromdm-webhook/internal/model"
	"github.com/spf13/cobra"
)

var commandCmd = &cobra.Command{
	Use:   "command",
	Short: "Queue a single MDM command for a device",
	RunE: func(cmd *cobra.Command, args []string) error {
		udid, _ := cmd.Flags().GetString("udid")
		requestType, _ := cmd.Flags().GetString("type")

		udid = strings.TrimSpace(udid)
		if udid == "" {
			return fmt.Errorf("--udid is required")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		rt := model.ParseRequestType(requestType)
		if !rt.Known() {
			fmt.Fprintf(cmd.ErrOrStderr(), ">> %q is not one of %s, sending as-is\n", rt, model.RequestTypeNames(", "))
		}
		if err := mdm.NewClient(cfg.MDM).Send(context.Background(), udid, rt); err != nil {
			return fmt.Errorf("send %s to %s: %w", rt, udid, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), ">> queued %s for %s\n", rt, udid)
		return nil
	},
}

func init() {
	commandCmd.Flags().String("udid", "", "target device UDID")
	commandCmd.Flags().String("type", string(model.RequestInstalledApplicationList), "MDM request type ("+model.RequestTypeNames(", ")+")")
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/control"
)

// ProcessStatus holds the status information for the daemon.
type ProcessStatus struct {
	Running       bool   `json:"running"`
	Health        string `json:"health,omitempty"`
	PID           int    `json:"pid,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds,omitempty"`
	Sessions      int    `json:"sessions"`
	Error         string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of the running gateway",
		Long:  `Show the health and status of the running gateway daemon.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	status := queryProcessStatus(cmd.Context())

	if cfg.jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(formatStatus(status))
	return nil
}

// queryProcessStatus queries the control socket and returns the daemon status.
func queryProcessStatus(ctx context.Context) ProcessStatus {
	var status ProcessStatus

	// Check if socket file exists before dialing
	if _, err := os.Stat(control.SocketPath()); os.IsNotExist(err) {
		status.Error = "socket not found"
		return status
	}

	client := control.NewClient()

	health, err := client.Health(ctx)
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}

	controlStatus, err := client.Status(ctx)
	if err != nil {
		// Health succeeded but status failed - still consider running
		status.Running = true
		status.Health = health.Status
		return status
	}

	status.Running = controlStatus.Running
	status.Health = health.Status
	status.PID = controlStatus.PID
	status.UptimeSeconds = controlStatus.UptimeSeconds
	status.Sessions = controlStatus.Sessions

	return status
}

// formatStatus formats the status as a human-readable line.
func formatStatus(status ProcessStatus) string {
	if !status.Running {
		reason := "not running"
		if status.Error != "" {
			reason = status.Error
		}
		return "gatewarden: stopped (" + reason + ")"
	}
	return fmt.Sprintf("gatewarden: running (health: %s, pid: %d, uptime: %s, sessions: %d)",
		status.Health, status.PID, formatUptime(status.UptimeSeconds), status.Sessions)
}

// formatUptime formats seconds into a human-readable duration.
func formatUptime(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// shortTimeout wraps a context with the default operator command timeout.
func shortTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

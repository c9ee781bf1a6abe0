package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/callcenter-console/backend/internal/models"
	"github.com/callcenter-console/backend/internal/service"
)

var agentFlags struct {
	id       string
	name     string
	email    string
	password string
	role     string
}

var createAgentCmd = &cobra.Command{
	Use:   "create-agent",
	Short: "Create an agent or reset its password",
	Args:  cobra.NoArgs,
	RunE:  runCreateAgent,
}

func init() {
	f := createAgentCmd.Flags()
	f.StringVar(&agentFlags.id, "id", "", "agent id, used in ticket serials")
	f.StringVar(&agentFlags.name, "name", "", "display name")
	f.StringVar(&agentFlags.email, "email", "", "email")
	f.StringVar(&agentFlags.password, "password", "", "login password")
	f.StringVar(&agentFlags.role, "role", models.RoleAgent, "agent or admin")
	_ = createAgentCmd.MarkFlagRequired("id")
	_ = createAgentCmd.MarkFlagRequired("password")
}

func runCreateAgent(cmd *cobra.Command, args []string) error {
	role := strings.ToLower(agentFlags.role)
	if role != models.RoleAgent && role != models.RoleAdmin {
		return errors.New("role must be agent or admin")
	}
	cfg, logger, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	auth := &service.AuthService{Store: store, Logger: logger}
	agent := models.Agent{
		ID:    agentFlags.id,
		Name:  agentFlags.name,
		Email: agentFlags.email,
		Role:  role,
	}
	if err := auth.EnsureAgent(ctx, agent, agentFlags.password); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "agent %s saved (%s)\n", agent.ID, role)
	return nil
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"checklistd/internal/store"
	"checklistd/internal/types"
)

var (
	listRole    string
	approveRole string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Inspect and manage user records",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user records, optionally filtered by role",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openService()
		if err != nil {
			return err
		}
		defer st.Close()

		var users []types.UserRecord
		if listRole == "" {
			users, err = st.ListUserRecords()
		} else {
			role := types.Role(listRole)
			if !role.Valid() {
				return fmt.Errorf("invalid role %q", listRole)
			}
			users, err = st.ListUsersByRole(role)
		}
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No users.")
			return nil
		}
		for _, u := range users {
			fmt.Printf("%s  %-10s  %-24s  bundles=%d\n", u.ID, u.Role, u.Email, len(u.AssignedBundles))
		}
		return nil
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Show a user's record with the full checklist tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openService()
		if err != nil {
			return err
		}
		defer st.Close()

		u, err := st.GetUserRecord(args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("user %s not found", args[0])
		}
		if err != nil {
			return err
		}

		fmt.Printf("User: %s <%s> (%s)\nRole: %s\n", u.Name, u.Email, u.ID, u.Role)
		if len(u.AssignedBundles) == 0 {
			fmt.Println("No assigned checklists.")
			return nil
		}
		for _, b := range u.AssignedBundles {
			fmt.Printf("\n%s (from %s)\n", b.Name, b.OriginID)
			for _, task := range b.Tasks {
				fmt.Printf("  %s %s (%s)\n", checkbox(task.Completed), task.Label, task.ID)
				for _, sub := range task.SubTasks {
					fmt.Printf("      %s %s (%s)\n", checkbox(sub.Completed), sub.Label, sub.ID)
				}
			}
		}
		return nil
	},
}

var userApproveCmd = &cobra.Command{
	Use:   "approve <user-id>",
	Short: "Grant a role to a pending user",
	Long: `Grant a role to a user, typically promoting a pending registration to
instructor. Promoting a user can make more templates eligible for them; a
sync pass is run immediately so the new assignments land.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, svc, err := openService()
		if err != nil {
			return err
		}
		defer st.Close()

		role := types.Role(approveRole)
		if err := st.UpdateUserRole(args[0], role); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("user %s not found", args[0])
			}
			return err
		}

		if _, err := svc.SyncUser(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("role updated but sync failed: %w", err)
		}
		fmt.Printf("User %s is now %s\n", args[0], role)
		return nil
	},
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func init() {
	userListCmd.Flags().StringVar(&listRole, "role", "", "filter by role (admin, instructor, pending)")
	userApproveCmd.Flags().StringVar(&approveRole, "role", string(types.RoleInstructor), "role to grant")

	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userShowCmd)
	userCmd.AddCommand(userApproveCmd)
}

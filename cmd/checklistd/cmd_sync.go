package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"checklistd/internal/session"
	"checklistd/internal/store"
)

var (
	signinEmail string
	signinName  string
	syncAllFlag bool
)

var signinCmd = &cobra.Command{
	Use:   "signin <user-id>",
	Short: "Record a sign-in, creating the user on first contact",
	Long: `Record a sign-in event. The first sign-in creates a pending user
record; every sign-in runs a synchronization pass so newly eligible
templates are assigned before the checklist is shown.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, svc, err := openService()
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := svc.SignIn(cmd.Context(), args[0], signinEmail, signinName)
		if err != nil {
			return err
		}
		fmt.Printf("Signed in %s (role=%s, bundles=%d)\n", rec.ID, rec.Role, len(rec.AssignedBundles))
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync [user-id]",
	Short: "Synchronize assignments for one user or everyone",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncAllFlag == (len(args) == 1) {
			return fmt.Errorf("pass exactly one of a user id or --all")
		}

		st, svc, err := openService()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()

		if syncAllFlag {
			updated, err := svc.SyncAll(ctx)
			var partial *session.PartialSyncError
			if errors.As(err, &partial) {
				fmt.Printf("Updated %d record(s); %d failed:\n", updated, len(partial.Failed))
				for _, f := range partial.Failed {
					fmt.Printf("  %s: %v\n", f.UserID, f.Err)
				}
				return err
			}
			if err != nil {
				return err
			}
			fmt.Printf("Updated %d record(s)\n", updated)
			return nil
		}

		changed, err := svc.SyncUser(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("user %s not found", args[0])
		}
		if err != nil {
			return err
		}
		if changed {
			fmt.Printf("User %s updated\n", args[0])
		} else {
			fmt.Printf("User %s already up to date\n", args[0])
		}
		return nil
	},
}

func init() {
	signinCmd.Flags().StringVar(&signinEmail, "email", "", "email recorded on first sign-in")
	signinCmd.Flags().StringVar(&signinName, "name", "", "display name recorded on first sign-in")
	syncCmd.Flags().BoolVar(&syncAllFlag, "all", false, "synchronize every user record")
}

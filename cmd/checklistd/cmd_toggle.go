package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"checklistd/internal/store"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle <user-id> <bundle-origin-id> <task-id> [subtask-id]",
	Short: "Flip a task or subtask completion flag on a user's checklist",
	Long: `Flip the completion flag of a task (three arguments) or a subtask
(four arguments) on the given user's copy of a checklist. Toggling a subtask
never changes the parent task. Unknown bundle, task, or subtask ids are
ignored.

Admins may toggle on behalf of any user by passing that user's id.`,
	Args: cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, svc, err := openService()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		userID, originID, taskID := args[0], args[1], args[2]

		if len(args) == 4 {
			err = svc.ToggleSubTask(ctx, userID, originID, taskID, args[3])
		} else {
			err = svc.ToggleTask(ctx, userID, originID, taskID)
		}
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("user %s not found", userID)
		}
		return err
	},
}

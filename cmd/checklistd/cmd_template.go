package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"checklistd/internal/session"
	"checklistd/internal/store"
	"checklistd/internal/types"
)

var (
	templateFilePath string
	retryUserIDs     []string
)

// templateFile is the on-disk YAML shape for authoring templates.
type templateFile struct {
	ID       string   `yaml:"id,omitempty"`
	Name     string   `yaml:"name"`
	Audience []string `yaml:"audience"`
	Tasks    []struct {
		ID       string `yaml:"id,omitempty"`
		Label    string `yaml:"label"`
		SubTasks []struct {
			ID    string `yaml:"id,omitempty"`
			Label string `yaml:"label"`
		} `yaml:"subtasks,omitempty"`
	} `yaml:"tasks"`
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage checklist templates",
	Long: `Create, inspect, edit, and delete checklist templates.

Templates are the admin-authored masters. Editing a template never rewrites
copies users already hold; deleting one cascades the matching bundle out of
every user record.`,
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openService()
		if err != nil {
			return err
		}
		defer st.Close()

		templates, err := st.ListTemplates()
		if err != nil {
			return err
		}
		if len(templates) == 0 {
			fmt.Println("No templates.")
			return nil
		}
		for _, t := range templates {
			fmt.Printf("%s  %-24s  tasks=%d  audience=%s\n",
				t.ID, t.Name, len(t.Tasks), strings.Join(t.AssignedInstructors, ","))
		}
		return nil
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show <template-id>",
	Short: "Show one template in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openService()
		if err != nil {
			return err
		}
		defer st.Close()

		t, err := st.GetTemplate(args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("template %s not found", args[0])
		}
		if err != nil {
			return err
		}

		fmt.Printf("Template: %s (%s)\n", t.Name, t.ID)
		fmt.Printf("Audience: %s\n", strings.Join(t.AssignedInstructors, ", "))
		for _, task := range t.Tasks {
			fmt.Printf("  - %s (%s)\n", task.Label, task.ID)
			for _, sub := range task.SubTasks {
				fmt.Printf("      - %s (%s)\n", sub.Label, sub.ID)
			}
		}
		return nil
	},
}

var templateCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a template from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		tpl, err := readTemplateFile(templateFilePath)
		if err != nil {
			return err
		}

		st, _, err := openService()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.CreateTemplate(tpl); err != nil {
			return err
		}
		logger.Info("template created", zap.String("id", tpl.ID), zap.String("name", tpl.Name))
		fmt.Printf("Created template %s (%s)\n", tpl.Name, tpl.ID)
		return nil
	},
}

var templateUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace a template's definition from a YAML file",
	Long: `Replace a template's definition. The file must carry the template id.

Existing user copies are left untouched; only users who receive the template
after this edit see the new definition.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tpl, err := readTemplateFile(templateFilePath)
		if err != nil {
			return err
		}
		if tpl.ID == "" {
			return fmt.Errorf("%s: update requires an id field", templateFilePath)
		}

		st, _, err := openService()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.UpdateTemplate(*tpl); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("template %s not found", tpl.ID)
			}
			return err
		}
		fmt.Printf("Updated template %s (%s)\n", tpl.Name, tpl.ID)
		return nil
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <template-id>",
	Short: "Delete a template and cascade it out of every user record",
	Long: `Delete a template. Every user holding the matching bundle has it
removed. If some user records cannot be written, the failed user ids are
reported; re-run the delete (or pass --retry-users) to finish the cascade.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, svc, err := openService()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		templateID := args[0]

		if len(retryUserIDs) > 0 {
			if err := svc.RetryCascade(ctx, templateID, retryUserIDs); err != nil {
				return reportCascade(err)
			}
			fmt.Printf("Cascade finished for template %s\n", templateID)
			return nil
		}

		if err := svc.DeleteTemplate(ctx, templateID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("template %s not found", templateID)
			}
			return reportCascade(err)
		}
		fmt.Printf("Deleted template %s\n", templateID)
		return nil
	},
}

// reportCascade turns a partial cascade failure into actionable output.
func reportCascade(err error) error {
	var partial *session.PartialCascadeError
	if !errors.As(err, &partial) {
		return err
	}
	fmt.Fprintf(os.Stderr, "Template %s deleted, but %d user record(s) could not be updated:\n",
		partial.TemplateID, len(partial.Failed))
	for _, f := range partial.Failed {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", f.UserID, f.Err)
	}
	fmt.Fprintf(os.Stderr, "Re-run with --retry-users=%s to finish the cascade.\n",
		strings.Join(partial.FailedUserIDs(), ","))
	return err
}

func readTemplateFile(path string) (*types.Template, error) {
	if path == "" {
		return nil, fmt.Errorf("--file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	var tf templateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse template file: %w", err)
	}
	if tf.Name == "" {
		return nil, fmt.Errorf("%s: template name is required", path)
	}
	if len(tf.Audience) == 0 {
		return nil, fmt.Errorf("%s: audience is required (use %q for all instructors)", path, types.AudienceEveryone)
	}

	tpl := &types.Template{
		ID:                  tf.ID,
		Name:                tf.Name,
		AssignedInstructors: tf.Audience,
	}
	for _, task := range tf.Tasks {
		tt := types.TaskTemplate{ID: task.ID, Label: task.Label}
		for _, sub := range task.SubTasks {
			tt.SubTasks = append(tt.SubTasks, types.SubTaskTemplate{ID: sub.ID, Label: sub.Label})
		}
		tpl.Tasks = append(tpl.Tasks, tt)
	}
	return tpl, nil
}

func init() {
	templateCreateCmd.Flags().StringVarP(&templateFilePath, "file", "f", "", "YAML template definition")
	templateUpdateCmd.Flags().StringVarP(&templateFilePath, "file", "f", "", "YAML template definition")
	templateDeleteCmd.Flags().StringSliceVar(&retryUserIDs, "retry-users", nil, "retry the cascade for these user ids only")

	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateCreateCmd)
	templateCmd.AddCommand(templateUpdateCmd)
	templateCmd.AddCommand(templateDeleteCmd)
}

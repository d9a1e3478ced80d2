package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"todo/internal/model"
	"todo/internal/service"
)

func (a *app) addCmd() *cobra.Command {
	var category, dueDate string

	cmd := &cobra.Command{
		Use:   "add <task>",
		Short: "Add todo list item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := service.AddInput{Info: args[0]}
			if cmd.Flags().Changed("category") {
				input.Category = &category
			}
			if cmd.Flags().Changed("due-date") {
				input.DueDate = &dueDate
			}

			return a.withDB(func(db *gorm.DB) error {
				task, err := service.NewTaskService(db, a.now).Add(cmd.Context(), input)
				if err != nil {
					return err
				}
				a.log.Debug().Uint("id", task.ID).Msg("task added")

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Added task #%d", task.ID)
				if task.DueDate != nil {
					fmt.Fprintf(out, " due %s", *task.DueDate)
				}
				fmt.Fprintln(out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Category of the task")
	cmd.Flags().StringVarP(&dueDate, "due-date", "d", "", "Due date: YYYY-MM-DD, MM-DD, DD (slashes allowed, leading zeros optional)")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var opts service.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todo items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(func(db *gorm.DB) error {
				rows, err := service.NewTaskService(db, a.now).List(cmd.Context(), opts)
				if err != nil {
					return err
				}
				return printTasks(cmd.OutOrStdout(), rows)
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.ByCategory, "category", "c", false, "Sort by category")
	cmd.Flags().BoolVarP(&opts.IncludeDone, "include-done", "i", false, "Include finished tasks")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var finish, dueDate, category, info string
	var remove bool

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit todo list item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			patch := service.Patch{Remove: remove}
			if cmd.Flags().Changed("finish") {
				done, err := strconv.ParseBool(finish)
				if err != nil {
					return fmt.Errorf("invalid --finish value %q: want true or false", finish)
				}
				patch.Finish = &done
			}
			if cmd.Flags().Changed("due-date") {
				patch.DueDate = &dueDate
			}
			if cmd.Flags().Changed("category") {
				patch.Category = &category
			}
			if cmd.Flags().Changed("info") {
				patch.Info = &info
			}

			return a.withDB(func(db *gorm.DB) error {
				if err := service.NewTaskService(db, a.now).Edit(cmd.Context(), uint(id), patch); err != nil {
					return err
				}
				if remove {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed task #%d\n", id)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Updated task #%d\n", id)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&finish, "finish", "f", "", "Mark the task done (true) or not done (false)")
	cmd.Flags().StringVarP(&dueDate, "due-date", "d", "", "Set due date: YYYY-MM-DD, MM-DD, DD")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Set category; empty removes it")
	cmd.Flags().StringVarP(&info, "info", "i", "", "Set task text")
	cmd.Flags().BoolVarP(&remove, "remove", "r", false, "Delete the task")
	return cmd
}

func printTasks(w io.Writer, rows []model.TaskRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tDUE\tCATEGORY\tTASK")
	for _, row := range rows {
		done := "[ ]"
		if row.Done {
			done = "[x]"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", row.ID, done, dash(row.Due()), dash(row.CategoryName()), row.Info)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

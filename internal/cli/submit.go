package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/akowalczyk/voxtask/internal/core"
)

var (
	submitAccount string
	submitProject string
	submitFile    string
	submitPick    bool
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit marker-delimited task text to Todoist",
	Long: `Submit task text to Todoist as a parent task plus one subtask per
list item. The text uses !!Section!! headers:

  !!Project!!: Errands
  !!Task Summary!!: Weekend trip
  !!Tasks!!
  - book flight
  - book hotel
  !!Priority!!: 2

Reads from --file, or from stdin when no file is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if NewClients == nil {
			return fmt.Errorf("clients not initialized")
		}

		account, err := resolveAccount(submitAccount)
		if err != nil {
			return err
		}

		content, err := readSubmitContent(submitFile, cmd.InOrStdin())
		if err != nil {
			return err
		}

		clients := NewClients(account)

		projectID := strings.TrimSpace(submitProject)
		if submitPick {
			projects, err := clients.Projects.ListProjects(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing projects: %w", err)
			}
			choice, err := pickProject(projects)
			if err != nil {
				return err
			}
			projectID = choice.ID
		}

		coordinator := core.NewCoordinator(clients.Creator, Events)
		result, err := coordinator.Submit(cmd.Context(), core.SubmitRequest{
			Content:   content,
			ProjectID: projectID,
			Account:   account,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created task %s", result.Parent.ID())
		if n := len(result.Subtasks); n > 0 {
			fmt.Printf(" with %d subtasks", n)
		}
		fmt.Println()
		return nil
	},
}

// readSubmitContent reads the submission text from a file, or from stdin
// when no file is given.
func readSubmitContent(path string, stdin io.Reader) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading task file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading task text from stdin: %w", err)
	}
	return string(data), nil
}

func init() {
	submitCmd.Flags().StringVar(&submitAccount, "account", "", "account to submit as")
	submitCmd.Flags().StringVar(&submitProject, "project", "", "Todoist project id, overrides the account default")
	submitCmd.Flags().StringVar(&submitFile, "file", "", "file containing the task text (defaults to stdin)")
	submitCmd.Flags().BoolVar(&submitPick, "pick", false, "pick the project interactively")
	rootCmd.AddCommand(submitCmd)
}

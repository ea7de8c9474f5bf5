package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var projectsAccount string

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List the Todoist projects visible to an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if NewClients == nil {
			return fmt.Errorf("clients not initialized")
		}

		account, err := resolveAccount(projectsAccount)
		if err != nil {
			return err
		}

		projects, err := NewClients(account).Projects.ListProjects(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing projects: %w", err)
		}

		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}

		fmt.Println(titleStyle.Render(fmt.Sprintf(" Projects for %s ", account.Username)))
		fmt.Println()
		for _, p := range projects {
			marker := "  "
			if p.ID == account.DefaultProjectID() {
				marker = cursorStyle.Render("* ")
			}
			fmt.Printf("%s%s %s\n", marker, p.Name, idStyle.Render("("+p.ID+")"))
		}
		return nil
	},
}

func init() {
	projectsCmd.Flags().StringVar(&projectsAccount, "account", "", "account to list projects for")
	rootCmd.AddCommand(projectsCmd)
}

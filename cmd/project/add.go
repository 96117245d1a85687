package project

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/app"
	"github.com/flightdeck-cd/flightdeck/cmd/output"
	"github.com/flightdeck-cd/flightdeck/cmd/utils"
	"github.com/flightdeck-cd/flightdeck/domain"
)

func NewCmdProjectAdd() *cobra.Command {
	var repos []string
	var pipelines []string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new project",
		Long: `Register a new project with its repositories and pipelines.

Repositories are given as name=owner/repo. Pipelines are given as
name=repo-name:workflow-file:branch:environment, where repo-name refers to
a repository registered in the same invocation.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			project := domain.NewProject(args[0])

			repoIDs := make(map[string]uuid.UUID)
			for _, spec := range repos {
				repo, err := parseRepositorySpec(spec)
				if err != nil {
					utils.HandleCommandError("adding project", err)
					return
				}
				repoIDs[repo.Name] = repo.ID
				project.Repositories = append(project.Repositories, repo)
			}

			for _, spec := range pipelines {
				pipeline, err := parsePipelineSpec(spec, repoIDs)
				if err != nil {
					utils.HandleCommandError("adding project", err)
					return
				}
				project.Pipelines = append(project.Pipelines, pipeline)
			}

			created, err := app.GetProjectService().Create(project)
			if err != nil {
				utils.HandleCommandError("adding project", err, "project_name", args[0])
				return
			}

			if err := output.FprintSuccess(cmd, "Project '%s' added with ID %s", created.Name, created.ID); err != nil {
				utils.HandleCommandError("printing project add output", err)
			}
		},
	}

	cmd.Flags().StringArrayVarP(&repos, "repo", "r", nil, "Repository as name=owner/repo (repeatable)")
	cmd.Flags().StringArrayVarP(&pipelines, "pipeline", "p", nil, "Pipeline as name=repo-name:workflow-file:branch:environment (repeatable)")
	return cmd
}

func parseRepositorySpec(spec string) (domain.Repository, error) {
	name, rest, ok := strings.Cut(spec, "=")
	if !ok {
		return domain.Repository{}, fmt.Errorf("invalid repository spec %q: expected name=owner/repo", spec)
	}
	owner, repo, ok := strings.Cut(rest, "/")
	if !ok || owner == "" || repo == "" {
		return domain.Repository{}, fmt.Errorf("invalid repository spec %q: expected name=owner/repo", spec)
	}
	return domain.Repository{
		ID:    uuid.New(),
		Name:  name,
		Owner: owner,
		Repo:  repo,
	}, nil
}

func parsePipelineSpec(spec string, repoIDs map[string]uuid.UUID) (domain.Pipeline, error) {
	name, rest, ok := strings.Cut(spec, "=")
	if !ok {
		return domain.Pipeline{}, fmt.Errorf("invalid pipeline spec %q: expected name=repo-name:workflow-file:branch:environment", spec)
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 4 {
		return domain.Pipeline{}, fmt.Errorf("invalid pipeline spec %q: expected name=repo-name:workflow-file:branch:environment", spec)
	}
	repoID, ok := repoIDs[parts[0]]
	if !ok {
		return domain.Pipeline{}, fmt.Errorf("pipeline %q references unknown repository %q", name, parts[0])
	}
	return domain.Pipeline{
		ID:           uuid.New(),
		Name:         name,
		RepositoryID: repoID,
		WorkflowFile: parts[1],
		Branch:       parts[2],
		Environment:  parts[3],
	}, nil
}

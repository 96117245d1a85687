// Package output provides functions to print messages with optional color formatting
package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/flightdeck-cd/flightdeck/domain"
)

const (
	Plain   = color.FgWhite
	Success = color.FgGreen
	Warning = color.FgYellow
	Error   = color.FgRed
)

var maybeColorize func(kind color.Attribute, tmpl string, a ...any) string

// InitColors sets up color functions based on environment
func InitColors(isColorDisabled bool) {
	if color.NoColor || isColorDisabled {
		maybeColorize = func(kind color.Attribute, tmpl string, a ...any) string {
			return fmt.Sprintf(tmpl, a...)
		}
	} else {
		maybeColorize = func(kind color.Attribute, tmpl string, a ...any) string {
			return color.New(kind).SprintfFunc()(tmpl, a...)
		}
	}
}

// PrintMessage formats a message with color (if enabled) and prints it
func PrintMessage(kind color.Attribute, tmpl string, a ...any) string {
	if maybeColorize == nil || kind == Plain {
		return fmt.Sprintf(tmpl+"\n", a...)
	}
	return fmt.Sprintln(maybeColorize(kind, tmpl, a...))
}

// FprintPlain writes an uncolored line to the command's stdout.
func FprintPlain(cmd *cobra.Command, tmpl string, a ...any) error {
	_, err := fmt.Fprint(cmd.OutOrStdout(), PrintMessage(Plain, tmpl, a...))
	return err
}

// FprintSuccess writes a success-colored line to the command's stdout.
func FprintSuccess(cmd *cobra.Command, tmpl string, a ...any) error {
	_, err := fmt.Fprint(cmd.OutOrStdout(), PrintMessage(Success, tmpl, a...))
	return err
}

// FprintWarning writes a warning-colored line to the command's stdout.
func FprintWarning(cmd *cobra.Command, tmpl string, a ...any) error {
	_, err := fmt.Fprint(cmd.OutOrStdout(), PrintMessage(Warning, tmpl, a...))
	return err
}

func PrintTable(header []string, data [][]string) (string, error) {
	buf := strings.Builder{}

	table := tablewriter.NewTable(
		&buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines: tw.Lines{
					ShowHeaderLine: tw.Off,
				},
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{PerColumn: []tw.Align{tw.AlignRight, tw.AlignLeft}},
			},
		}))

	if len(header) > 0 {
		table.Header(header)
	}

	if err := table.Bulk(data); err != nil {
		return "", fmt.Errorf("bulk adding data to table: %w", err)
	}

	if err := table.Render(); err != nil {
		return "", fmt.Errorf("rendering table: %w", err)
	}

	return buf.String(), nil
}

func PrintProjectDetails(project *domain.Project) (string, error) {
	data := [][]string{
		{"ID", project.ID.String()},
		{"Name", project.Name},
		{"Production Releases", strconv.FormatBool(project.IsProductionRelease)},
		{"Created At", project.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Updated At", project.UpdatedAt.Format("2006-01-02 15:04:05")},
	}

	for _, repo := range project.Repositories {
		data = append(data, []string{"Repository", fmt.Sprintf("%s (%s/%s)", repo.Name, repo.Owner, repo.Repo)})
	}
	for _, pipeline := range project.Pipelines {
		data = append(data, []string{
			"Pipeline",
			fmt.Sprintf("%s (%s @ %s, env %s)", pipeline.Name, pipeline.WorkflowFile, pipeline.Branch, pipeline.Environment),
		})
	}

	table, err := PrintTable([]string{}, data)
	if err != nil {
		return "", fmt.Errorf("printing project details table: %w", err)
	}
	return table, nil
}

func PrintProjectList(projects []*domain.Project) (string, error) {
	if len(projects) == 0 {
		return PrintMessage(Plain, "No projects found."), nil
	}

	header := []string{
		"ID",
		"Name",
		"Repositories",
		"Pipelines",
		"Created At",
	}
	var data [][]string
	for _, project := range projects {
		data = append(data, []string{
			project.ID.String(),
			project.Name,
			strconv.Itoa(len(project.Repositories)),
			strconv.Itoa(len(project.Pipelines)),
			project.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing project list table: %w", err)
	}
	return table, nil
}

func PrintDeploymentList(project *domain.Project, deployments []*domain.Deployment) (string, error) {
	if len(deployments) == 0 {
		return PrintMessage(Plain, "No deployments found."), nil
	}

	header := []string{
		"ID",
		"Pipeline",
		"Build",
		"Environment",
		"Status",
		"Run ID",
		"Started At",
	}
	var data [][]string
	for _, d := range deployments {
		pipelineName := d.PipelineID.String()
		if p := project.PipelineByID(d.PipelineID); p != nil {
			pipelineName = p.Name
		}
		runID := "-"
		if d.WorkflowRunID != nil {
			runID = strconv.FormatInt(*d.WorkflowRunID, 10)
		}
		data = append(data, []string{
			d.ID.String(),
			pipelineName,
			d.BuildNumber,
			d.Environment,
			d.Status.String(),
			runID,
			d.StartedAt.Format("2006-01-02 15:04:05"),
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing deployment list table: %w", err)
	}
	return table, nil
}

func PrintReleaseList(releases []*domain.ProductionRelease) (string, error) {
	if len(releases) == 0 {
		return PrintMessage(Plain, "No production releases found."), nil
	}

	header := []string{
		"ID",
		"Number",
		"Status",
		"Created At",
	}
	var data [][]string
	for _, r := range releases {
		data = append(data, []string{
			r.ID.String(),
			r.ReleaseNumber,
			r.Status.String(),
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing release list table: %w", err)
	}
	return table, nil
}

func PrintReleaseSteps(release *domain.ProductionRelease) (string, error) {
	header := []string{
		"Step",
		"Title",
		"Status",
		"Completed At",
	}
	var data [][]string
	for _, step := range release.Steps {
		completedAt := "-"
		if step.CompletedAt != nil {
			completedAt = step.CompletedAt.Format("2006-01-02 15:04:05")
		}
		status := step.Status.String()
		if step.Manual {
			status += " (manual)"
		}
		data = append(data, []string{
			strconv.Itoa(int(step.ID)),
			step.ID.Title(),
			status,
			completedAt,
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing release steps table: %w", err)
	}
	return table, nil
}

// CLI flag for disabling color output

// NoColor is a flag that can be used to disable colored output in the CLI.
var NoColor = &noColorFlag{set: false}

type noColorFlag struct {
	set bool
}

func (f *noColorFlag) Set(value string) error {
	// Boolean flag, the value is ignored
	f.set = true
	return nil
}

func (f *noColorFlag) String() string {
	if f.set {
		return "true"
	}
	return "false"
}

func (f *noColorFlag) Type() string {
	return "bool"
}

// IsSet returns true if the --no-color flag was explicitly set
func (f *noColorFlag) IsSet() bool {
	return f.set
}

// IsBoolFlag tells pflag this is a boolean flag (no argument required)
func (f *noColorFlag) IsBoolFlag() bool {
	return true
}

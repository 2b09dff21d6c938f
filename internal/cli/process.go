package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewProcessCmd создаёт группу команд для управления процессами.
func NewProcessCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Manage stored processes",
	}

	cmd.AddCommand(
		newProcessListCmd(clientFn, outputFn),
		newProcessCreateCmd(clientFn, outputFn),
		newProcessShowCmd(clientFn, outputFn),
		newProcessUpdateCmd(clientFn, outputFn),
		newProcessDeleteCmd(clientFn, outputFn),
		newProcessVersionsCmd(clientFn, outputFn),
		newProcessPublishCmd(clientFn, outputFn),
		newProcessPreviewCmd(clientFn, outputFn),
		newProcessLayoutCmd(clientFn, outputFn),
	)

	return cmd
}

var processHeaders = []string{"ID", "NAME", "ACTIVE", "CREATED"}

func processRow(p *ProcessResponse) []string {
	return []string{p.ID, p.Name, strconv.FormatBool(p.IsActive), p.CreatedAt}
}

func newProcessListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			processes, err := client.ListProcesses()
			if err != nil {
				return err
			}

			rows := make([][]string, len(processes))
			for i := range processes {
				rows[i] = processRow(&processes[i])
			}

			out.Print(processHeaders, rows, processes)
			return nil
		},
	}
}

func newProcessCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new process",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			process, err := client.CreateProcess(name)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Process created: %s", process.ID))
			out.Print(processHeaders, [][]string{processRow(process)}, process)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Process name (required)")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newProcessShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show process details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			process, err := client.GetProcess(args[0])
			if err != nil {
				return err
			}

			out.Print(processHeaders, [][]string{processRow(process)}, process)
			return nil
		},
	}
}

func newProcessUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var active string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := UpdateProcessRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("active") {
				b, err := strconv.ParseBool(active)
				if err != nil {
					return fmt.Errorf("invalid value for --active: %s", active)
				}
				req.IsActive = &b
			}

			process, err := client.UpdateProcess(args[0], req)
			if err != nil {
				return err
			}

			out.Success("Process updated")
			out.Print(processHeaders, [][]string{processRow(process)}, process)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New process name")
	cmd.Flags().StringVar(&active, "active", "", "Set active status (true/false)")

	return cmd
}

func newProcessDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a process with all its versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteProcess(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Process deleted: %s", args[0]))
			return nil
		},
	}
}

func newProcessVersionsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "versions PROCESS_ID",
		Short: "List process versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			versions, err := client.ListVersions(args[0])
			if err != nil {
				return err
			}

			headers := []string{"PROCESS_ID", "VERSION", "CREATED"}
			rows := make([][]string, len(versions))
			for i, v := range versions {
				rows[i] = []string{v.ProcessID, formatVersion(v.Version), v.CreatedAt}
			}

			out.Print(headers, rows, versions)
			return nil
		},
	}
}

func newProcessPublishCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file string
	var strict bool

	cmd := &cobra.Command{
		Use:   "publish PROCESS_ID",
		Short: "Publish a new process version from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			text, err := readDefinitionFile(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			version, err := client.CreateVersion(args[0], text, strict)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Version %d published for process %s", version.Version, version.ProcessID))
			out.Print(
				[]string{"PROCESS_ID", "VERSION", "CREATED"},
				[][]string{{version.ProcessID, formatVersion(version.Version), version.CreatedAt}},
				version,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to process YAML, \"-\" for stdin (required)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject dangling references, cycles and unknown step types")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newProcessPreviewCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "preview PROCESS_ID [VERSION]",
		Short: "Show the level layout of a stored version (default: latest)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			preview, err := client.PreviewVersion(args[0], versionArg(args))
			if err != nil {
				return err
			}

			printPreview(out, preview)
			return nil
		},
	}
}

func newProcessLayoutCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "layout PROCESS_ID [VERSION]",
		Short: "Show the indexed layout summary of a version (default: latest)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			layout, err := client.GetLayout(args[0], versionArg(args))
			if err != nil {
				return err
			}

			headers := []string{"VERSION", "STEPS", "LEVELS", "MAX_PARALLEL", "UNRESOLVED", "COMPUTED"}
			row := []string{
				formatVersion(layout.Version),
				strconv.Itoa(layout.StepCount),
				strconv.Itoa(layout.LevelCount),
				strconv.Itoa(layout.MaxParallel),
				strconv.Itoa(len(layout.Unresolved)),
				layout.ComputedAt,
			}

			out.Print(headers, [][]string{row}, layout)
			if layout.ParseError != "" && !out.JSONMode() {
				out.Error("parse error: " + layout.ParseError)
			}
			return nil
		},
	}
}

func versionArg(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return "latest"
}

package cli

import (
	"github.com/spf13/cobra"
)

// NewStepTypesCmd создаёт команду step-types: список типов шагов.
func NewStepTypesCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "step-types",
		Short: "List known step types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := stepKinds.Kinds()

			rows := make([][]string, len(kinds))
			for i, k := range kinds {
				rows[i] = []string{k.Type.String(), k.Label, k.Description}
			}

			outputFn().Print([]string{"TYPE", "LABEL", "DESCRIPTION"}, rows, kinds)
			return nil
		},
	}
}

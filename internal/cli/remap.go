package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"oasis/internal/colormap"
)

// RemapCmd returns the remap command
func RemapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remap [code-file]",
		Short: "Recolor component code from one palette to another",
		Long: `Replace every source role color in the code with the target role color.

Palettes are given either as element trees (--from-tree/--to-tree) or as
role map JSON files (--source/--target). Roles present on only one side are
left alone.

Examples:
  oasis remap Hero.tsx --from-tree old.json --to-tree new.json
  cat Hero.tsx | oasis remap --source old-map.json --target new-map.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readInput(cmd, argOrStdin(args))
			if err != nil {
				return err
			}
			source, err := paletteFlag(cmd, "source", "from-tree")
			if err != nil {
				return err
			}
			target, err := paletteFlag(cmd, "target", "to-tree")
			if err != nil {
				return err
			}
			if colormap.Equal(source, target) {
				status(cmd, warnMark, "palettes are identical; code unchanged")
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), colormap.Remap(string(code), source, target))
			return err
		},
	}
	cmd.Flags().String("source", "", "source role map JSON file")
	cmd.Flags().String("target", "", "target role map JSON file")
	cmd.Flags().String("from-tree", "", "element tree providing the source palette")
	cmd.Flags().String("to-tree", "", "element tree providing the target palette")
	return cmd
}

func paletteFlag(cmd *cobra.Command, mapFlag, treeFlag string) (colormap.RoleMap, error) {
	if path, _ := cmd.Flags().GetString(treeFlag); path != "" {
		els, err := readTree(cmd, path)
		if err != nil {
			return nil, err
		}
		return colormap.Extract(els), nil
	}
	path, _ := cmd.Flags().GetString(mapFlag)
	if path == "" {
		return nil, fmt.Errorf("one of --%s or --%s is required", mapFlag, treeFlag)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var m colormap.RoleMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid role map %s: %w", path, err)
	}
	return m, nil
}

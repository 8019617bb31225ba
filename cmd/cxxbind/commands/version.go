package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/teranos/cxxbind/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show cxxbind version information",
	Long:  `Display version, build time, commit hash, declaration format and platform of the cxxbind binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		info := version.Get()

		if jsonOutput {
			output, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				cmd.PrintErrf("Error formatting JSON: %v\n", err)
				return
			}
			cmd.Println(string(output))
			return
		}
		cmd.Println(info.String())
		cmd.Printf("Declaration format: %s\n", info.DeclFormat)
		cmd.Printf("Platform: %s\n", info.Platform)
		cmd.Printf("Go: %s\n", info.GoVersion)
	},
}

func init() {
	VersionCmd.Flags().BoolP("json", "j", false, "Output version info as JSON")
}

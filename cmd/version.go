package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the protosage version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("protosage %s\n", Version)
		},
	}
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the values deck",
		Run:   runCatalog,
	}

	cmd.Flags().Bool("labels-only", false, "Only output value labels")

	RootCmd.AddCommand(cmd)
}

func runCatalog(cmd *cobra.Command, args []string) {
	labelsOnly, _ := cmd.Flags().GetBool("labels-only")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	values, err := s.Catalog(cmd.Context(), true)
	if err != nil {
		exitErr("catalog", err)
	}

	if labelsOnly {
		for _, v := range values {
			fmt.Println(v.Label)
		}
		return
	}

	b, _ := json.MarshalIndent(values, "", "  ")
	fmt.Println(string(b))
}

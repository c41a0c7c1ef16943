package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamscao/lotcert/pkg/certhash"
)

var pepperCmd = &cobra.Command{
	Use:   "pepper",
	Short: "Privacy pepper utilities",
}

var pepperGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random pepper for privacy.pepper / IP_HASH_PEPPER",
	RunE: func(cmd *cobra.Command, args []string) error {
		pepper, err := certhash.GeneratePepper()
		if err != nil {
			return err
		}
		fmt.Println(pepper)
		return nil
	},
}

func init() {
	pepperCmd.AddCommand(pepperGenerateCmd)
}

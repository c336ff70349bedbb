package main

import (
	"github.com/spf13/cobra"

	"podfetch/internal/catalog"
	"podfetch/internal/subrule"
)

func newRuleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rule <rule> <url>",
		Short: "Test a substitution rule against a candidate URL",
		Long: "Parses a sed-style substitution rule and applies it to the given URL,\n" +
			"printing the filename a run would use. Useful while tuning the rule for\n" +
			"a feed with ugly enclosure URLs.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := subrule.Parse(args[0])
			if err != nil {
				return err
			}
			if !rule.Matches(args[1]) {
				cmd.Printf("%s (pattern did not match; basename fallback)\n", catalog.ResolveFilename(rule, args[1]))
				return nil
			}
			cmd.Println(catalog.ResolveFilename(rule, args[1]))
			return nil
		},
	}
}

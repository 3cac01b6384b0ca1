package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sorryxx18/firefit-score-converter/internal/profile"
)

func newListProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-profiles",
		Short: "List the builtin scoring profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := profile.List()
			if err != nil {
				return exitError(exitConfig, "failed to list profiles: %v", err)
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newShowProfileCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "show-profile [name]",
		Short: "Print the column and item mapping of a profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				p   *profile.Profile
				err error
			)
			switch {
			case file != "":
				p, err = profile.LoadFile(file)
			case len(args) == 1:
				p, err = profile.LoadBuiltin(args[0])
			default:
				p, err = profile.LoadBuiltin(profile.DefaultName)
			}
			if err != nil {
				return exitError(exitConfig, "failed to load profile: %v", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), profile.Describe(p))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Profile YAML file instead of a builtin name")
	return cmd
}

package main

import (
	"github.com/spf13/cobra"
)

func newNearestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nearest FILE",
		Short: "Find the nearest neighbors of words read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadNormalized(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			q := a.newQuerySession(cmd, s, 1, "Enter words")
			return q.run(func(_ [][]string, words []string) error {
				v, err := s.WordsToVector(words...)
				if err != nil {
					return err
				}
				res, err := a.search(s, v, words)
				if err != nil {
					return err
				}
				q.writeNearest(res)
				return nil
			})
		},
	}
	addQueryFlags(cmd)
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/wvgo"
)

func newSimilarityCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similarity FILE",
		Short: "Print the cosine similarity of word pairs read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load(args[0], "")
			if err != nil {
				return err
			}
			defer s.Close()

			q := a.newQuerySession(cmd, s, 2, "Enter words")
			return q.run(func(phrases [][]string, _ []string) error {
				vs, err := phraseVectors(s, phrases)
				if err != nil {
					return err
				}
				sim, err := s.Similarity(wvgo.VectorQuery(vs[0]), wvgo.VectorQuery(vs[1]))
				if err != nil {
					return err
				}
				fmt.Fprintln(q.out, sim)
				return nil
			})
		},
	}
	addQueryFlags(cmd)
	return cmd
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAnalogyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analogy FILE",
		Short: "Find words nearest to p2 - p1 + p3 for phrases read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadNormalized(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			q := a.newQuerySession(cmd, s, 3, "Enter three words")
			return q.run(func(phrases [][]string, words []string) error {
				if !q.quiet {
					for _, p := range phrases {
						fmt.Fprintln(q.out, strings.Join(p, " "))
					}
				}
				vs, err := phraseVectors(s, phrases)
				if err != nil {
					return err
				}
				v := make([]float32, s.Dim())
				for i := range v {
					v[i] = vs[1][i] - vs[0][i] + vs[2][i]
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

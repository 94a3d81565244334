package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/wvgo"
	"github.com/hupe1980/wvgo/config"
)

func newConvertCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert INFILE OUTFILE",
		Short: "Convert between word vector formats",
		Long: `Convert between word vector formats.

INFILE and OUTFILE may also name a container in an object store, as
minio://BUCKET/PREFIX or s3://BUCKET/PREFIX.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.convert(args[0], args[1])
		},
	}
	cmd.Flags().StringP("input-format", "i", "", "Input format (cid, sdv, w2v, w2vbin, w2vtxt, wvlib)")
	cmd.Flags().StringP("output-format", "o", "", "Output format (sdv, w2vbin, w2vtxt, wvlib)")
	cmd.Flags().BoolP("normalize", "n", false, "Normalize vectors to unit length")
	cmd.Flags().StringP("vector-format", "v", "", "Vector member format of wvlib output (npy, tsv)")
	return cmd
}

func (a *app) convert(in, out string) error {
	var format wvgo.Format
	if name := a.v.GetString("input-format"); name != "" {
		f, err := wvgo.ParseFormat(name)
		if err != nil {
			return err
		}
		format = f
	}

	s, err := a.load(in, format)
	if err != nil {
		return err
	}
	defer s.Close()

	if a.v.GetBool("normalize") {
		a.logger.Info("normalizing vectors to unit length")
		if _, err := s.Normalize(); err != nil {
			return err
		}
	}

	var opts []wvgo.SaveOption
	if vf := a.v.GetString("vector-format"); vf != "" {
		opts = append(opts, wvgo.WithVectorFormat(config.VectorFormat(vf)))
	}
	loc, isBlob, err := parseBlobLocation(out)
	if err != nil {
		return err
	}
	if isBlob {
		return a.saveBlob(s, loc, opts)
	}
	if name := a.v.GetString("output-format"); name != "" {
		f, err := wvgo.ParseFormat(name)
		if err != nil {
			return err
		}
		opts = append(opts, wvgo.WithOutputFormat(f))
	}
	return s.Save(out, opts...)
}

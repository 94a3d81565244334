package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/wvgo"
)

// app carries the settings shared by all subcommands.
type app struct {
	ctx    context.Context
	v      *viper.Viper
	logger *wvgo.Logger
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("WVLIB")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

func newRootCmd() *cobra.Command {
	a := &app{v: newViper()}

	rootCmd := &cobra.Command{
		Use:          "wvlib",
		Short:        "Word vector conversion and similarity queries",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (yaml, json or toml)")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.IntP("max-rank", "r", 0, "Only load the r most frequent words")
	flags.String("minio-endpoint", "localhost:9000", "MinIO endpoint for minio://BUCKET/PREFIX paths")
	flags.String("minio-access-key", "", "MinIO access key (default from MINIO_ACCESS_KEY)")
	flags.String("minio-secret-key", "", "MinIO secret key (default from MINIO_SECRET_KEY)")
	flags.String("minio-region", "", "MinIO bucket region")
	flags.Bool("minio-secure", false, "Use HTTPS for MinIO")
	flags.String("s3-region", "", "AWS region for s3://BUCKET/PREFIX paths")
	flags.String("s3-endpoint", "", "Custom endpoint for S3-compatible services")

	rootCmd.AddCommand(
		newConvertCmd(a),
		newNearestCmd(a),
		newSimilarityCmd(a),
		newAnalogyCmd(a),
	)
	return rootCmd
}

// init binds the flags of the running command, reads the optional config
// file and sets up logging.
func (a *app) init(cmd *cobra.Command) error {
	a.ctx = cmd.Context()
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log-level"))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", a.v.GetString("log-level"), err)
	}
	a.logger = wvgo.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// load reads path, a local file or an object store location, with the
// shared options. format may be empty.
func (a *app) load(path string, format wvgo.Format) (*wvgo.Store, error) {
	opts := []wvgo.Option{wvgo.WithLogger(a.logger)}
	if a.v.IsSet("max-rank") {
		opts = append(opts, wvgo.WithMaxRank(a.v.GetInt("max-rank")))
	}
	if a.v.IsSet("seed") {
		opts = append(opts, wvgo.WithSeed(a.v.GetInt64("seed")))
	}
	loc, isBlob, err := parseBlobLocation(path)
	if err != nil {
		return nil, err
	}
	if isBlob {
		return a.loadBlob(loc, format, opts)
	}
	if format != "" {
		opts = append(opts, wvgo.WithFormat(format))
	}
	return wvgo.Load(path, opts...)
}

// loadNormalized loads path and scales its vectors to unit length.
func (a *app) loadNormalized(path string) (*wvgo.Store, error) {
	s, err := a.load(path, "")
	if err != nil {
		return nil, err
	}
	if _, err := s.Normalize(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

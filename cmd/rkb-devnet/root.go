package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kurtosis-tech/stacktrace"
	"github.com/rkb-chain/rkb-devnet/internal/config"
	"github.com/rkb-chain/rkb-devnet/internal/devnet"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix = "RKB_DEVNET"

	defaultManifestFilename = "devnet.yaml"
)

var manifestFile string

var rootCmd = &cobra.Command{
	Use:   "rkb-devnet",
	Short: "Bring up the rkb local development stack",
	Long: `rkb-devnet stands up the local rkb development stack: a reth-based
execution node built from the working tree, plus an optional Celestia DA
light node, all on one shared docker network. It waits for each node to be
usable (funded, token issued, RPC answering) before reporting the stack as
up.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initEnv)
	rootCmd.PersistentFlags().StringVar(&manifestFile, "config", "", "stack manifest file (default is ./devnet.yaml if present)")
	rootCmd.PersistentFlags().Bool("reth-only", false, "start only the execution node, skipping the DA node")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	viper.BindPFlag("reth-only", rootCmd.PersistentFlags().Lookup("reth-only"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initEnv() {
	// A .env in the working directory seeds things like RKB_AUTHORIZED_BRIDGE
	// for the compose files; missing is fine
	if err := godotenv.Load(); err == nil {
		logrus.Debug("Loaded .env from the working directory")
	}
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func loadConfig() (*config.Config, error) {
	manifestFilepath := manifestFile
	if manifestFilepath == "" {
		if _, err := os.Stat(defaultManifestFilename); err == nil {
			manifestFilepath = defaultManifestFilename
		}
	}

	manifest, err := config.LoadManifest(manifestFilepath)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred loading the stack manifest")
	}

	cfg := &config.Config{
		Manifest: manifest,
		RethOnly: viper.GetBool("reth-only"),
		Verbose:  viper.GetBool("verbose"),
	}
	if cfg.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	return cfg, nil
}

func newDevnet() (*devnet.Devnet, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return devnet.New(cfg)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metacore/nftup/internal/adapters/carstore"
	"github.com/metacore/nftup/internal/adapters/fssync"
	"github.com/metacore/nftup/internal/adapters/pinata"
	"github.com/metacore/nftup/internal/core/ports"
	"github.com/metacore/nftup/internal/core/services"
	"github.com/metacore/nftup/pkg/config"
	"github.com/metacore/nftup/pkg/logger"
	"github.com/metacore/nftup/pkg/ui"
	"github.com/metacore/nftup/pkg/workspace"
)

var (
	// Flags
	cfgFile string
	envFile string

	appConfig    *config.Config
	appWorkspace *workspace.Workspace

	// Pinning backend
	pinner        ports.Pinner
	authenticator ports.Authenticator
	closePinner   func() error

	// Services
	inspectorService *services.InspectorService
	uploadService    *services.UploadService
	retryService     *services.RetryService
	metadataService  *services.MetadataService
	recorderService  *services.RecorderService
	batchService     *services.BatchService
	singleService    *services.SingleService
)

// Commands that drive uploads and need the full service graph
var pipelineCommands = map[string]bool{
	"batch":  true,
	"single": true,
	"test":   true,
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nftup",
	Short: "nftup - NFT collection uploader for IPFS",
	Long: ui.StyleTitle.Render("nftup") + " - NFT collection uploader\n\n" +
		"Uploads images to IPFS, generates ERC-721 style metadata that points at them,\n" +
		"uploads the metadata and records every CID of the run.",
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	start := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		logger.L.Error("script execution failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, ui.FormatError(err.Error()))
	}
	logger.L.Info("total script execution time", zap.Duration("elapsed", time.Since(start)))

	shutdown()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFileName, "config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with credentials")

	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(singleCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp initializes the application components
func initializeApp(cmd *cobra.Command, args []string) error {
	// version and help need nothing
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	appConfig = cfg

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}
	appWorkspace = workspace.New(root, cfg.AssetsDir, cfg.OutputDir)

	if !pipelineCommands[cmd.Name()] {
		return nil
	}

	if err := initializePinner(cfg); err != nil {
		return err
	}
	initializeServices(cfg)

	// test reports authentication itself
	if cmd.Name() == "test" {
		return nil
	}
	return authenticate(cmd.Context())
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initializePinner(cfg *config.Config) error {
	switch cfg.Pinner {
	case config.PinnerCar:
		store, err := carstore.New(carstore.Options{
			OutputDir: appWorkspace.Resolve(cfg.Car.OutputDir),
			Datastore: datastorePath(cfg.Car.Datastore),
			ChunkSize: cfg.Car.ChunkSize,
		}, logger.L.Named("carstore"))
		if err != nil {
			return fmt.Errorf("failed to open car store: %w", err)
		}
		pinner, authenticator, closePinner = store, store, store.Close

	default:
		if !cfg.HasPinataCredentials() {
			return fmt.Errorf("please set PINATA_API_KEY and PINATA_SECRET_KEY (or PINATA_JWT) in %s", envFile)
		}
		client, err := pinata.New(pinata.Options{
			APIURL: cfg.Pinata.APIURL,
			Credentials: pinata.Credentials{
				APIKey:    cfg.Pinata.APIKey,
				SecretKey: cfg.Pinata.SecretKey,
				JWT:       cfg.Pinata.JWT,
			},
			CIDVersion: cfg.Pinata.CIDVersion,
		}, logger.L.Named("pinata"))
		if err != nil {
			return fmt.Errorf("pinata API initialization failed: %w", err)
		}
		pinner, authenticator = client, client
	}
	return nil
}

func datastorePath(path string) string {
	if path == "" {
		return ""
	}
	return appWorkspace.Resolve(path)
}

func initializeServices(cfg *config.Config) {
	log := logger.L

	suffix, warnings := cfg.Resolve()
	for _, w := range warnings {
		log.Warn("unsupported metadata format", zap.String("detail", w))
	}
	log.Info("metadata filename convention", zap.String("suffix", string(suffix)))

	var syncer ports.Syncer
	if cfg.FSSync {
		syncer = fssync.New()
	}

	inspectorService = services.NewInspectorService(log.Named("inspector"))
	uploadService = services.NewUploadService(pinner, log.Named("upload"))
	retryService = services.NewRetryService(services.RetryPolicy{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: time.Duration(cfg.Retry.InitialDelayMS) * time.Millisecond,
		Timeout:      time.Duration(cfg.Retry.TimeoutSeconds) * time.Second,
	}, log.Named("retry"))
	metadataService = services.NewMetadataService(services.MetadataOptions{
		Collection: cfg.Collection(),
		Suffix:     suffix,
	}, inspectorService, syncer, log.Named("metadata"))
	recorderService = services.NewRecorderService(cfg.GatewayURL, log.Named("recorder"))

	batchService = services.NewBatchService(appWorkspace, uploadService, retryService,
		metadataService, recorderService, inspectorService, log.Named("batch"))
	singleService = services.NewSingleService(appWorkspace, uploadService, retryService,
		metadataService, recorderService, log.Named("single"))
}

func authenticate(ctx context.Context) error {
	if err := authenticator.Authenticate(ctx); err != nil {
		return fmt.Errorf("%s authentication failed: %w", appConfig.Pinner, err)
	}
	logger.L.Info("authentication successful", zap.String("pinner", appConfig.Pinner))
	return nil
}

// shutdown releases the pinning backend and flushes logs
func shutdown() {
	if closePinner != nil {
		if err := closePinner(); err != nil {
			logger.L.Warn("failed to close pinner", zap.Error(err))
		}
		closePinner = nil
	}
	logger.Sync()
}

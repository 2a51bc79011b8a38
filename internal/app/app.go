package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/pgporter/pgporter/internal/adapter/checksum"
	"github.com/pgporter/pgporter/internal/adapter/compressor"
	"github.com/pgporter/pgporter/internal/adapter/database"
	"github.com/pgporter/pgporter/internal/adapter/encryptor"
	"github.com/pgporter/pgporter/internal/adapter/notify"
	"github.com/pgporter/pgporter/internal/adapter/secrets"
	"github.com/pgporter/pgporter/internal/adapter/storage"
	"github.com/pgporter/pgporter/internal/config"
	"github.com/pgporter/pgporter/internal/domain"
	"github.com/pgporter/pgporter/internal/infrastructure/logger"
	"github.com/pgporter/pgporter/internal/infrastructure/scheduler"
	"github.com/pgporter/pgporter/internal/usecase"
)

type App struct {
	config    *config.Config
	logger    *logger.Logger
	scheduler *scheduler.Scheduler
	notifier  domain.Notifier
	tasks     []domain.ScheduledTask
}

func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infof("Starting %s", cfg.App.Name)
	log.Infof("Found %d enabled task(s)", len(cfg.EnabledTasks()))

	awsCfg, err := loadAWSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	secretSource := secrets.NewManager(awsCfg, log)
	factory := database.NewFactory(secretSource, log)
	hasher := checksum.NewMD5(log)
	dumper := database.NewPgDump(log)
	gzip := compressor.NewGzip()
	cleaner := usecase.NewCleaner(log)

	var notifier domain.Notifier
	if cfg.Notify.Telegram.Enabled {
		notifier, err = notify.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telegram notifier: %w", err)
		}
		log.Infof("Telegram notifications enabled")
	}

	stores := map[string]domain.ObjectStore{}
	storeFor := func(bucket string) (domain.ObjectStore, error) {
		if s, ok := stores[bucket]; ok {
			return s, nil
		}
		var s domain.ObjectStore
		if cfg.Storage.Backend == "local" {
			local, err := storage.NewLocal(filepath.Join(cfg.Storage.LocalPath, bucket))
			if err != nil {
				return nil, err
			}
			s = local
		} else {
			s = storage.NewS3(awsCfg, bucket)
		}
		stores[bucket] = s
		return s, nil
	}

	var tasks []domain.ScheduledTask
	for _, t := range cfg.EnabledTasks() {
		var task domain.Task

		var store domain.ObjectStore
		if t.Bucket != "" {
			store, err = storeFor(t.Bucket)
			if err != nil {
				return nil, fmt.Errorf("task %q: %w", t.Name, err)
			}
		}

		switch t.Type {
		case "dump":
			task = usecase.NewDump(
				factory, dumper, hasher,
				encryptor.NewKMS(awsCfg, t.KMSKeyARN, log),
				store, cleaner, log,
				t.Database, t.SecretName, t.DumpExtraParams,
			)
		case "copy":
			task = usecase.NewRowCopy(
				factory, connSpec(t.Source), connSpec(t.Dest), log,
				t.SQL, toArgs(t.Params),
				t.DestTable, t.DestColumns,
				t.PreOperator, t.PostOperator,
			)
		case "export":
			task = usecase.NewExport(
				factory, connSpec(t.Source), store, gzip, cleaner, log,
				t.SQL, t.Key, t.Compress, t.Replace, t.EncryptAtRest,
			)
		case "import":
			task = usecase.NewImport(
				factory, connSpec(t.Dest), store, gzip, cleaner, log,
				t.Key, t.DestTable, t.DestColumns,
				t.PreOperator, t.PostOperator,
			)
		case "sql":
			task = usecase.NewSQLRun(
				factory,
				usecase.ConnSpec{
					SecretName: t.SecretName,
					Overrides:  domain.ConnectionOverrides{Database: t.Database},
				},
				log, t.SQL, toArgs(t.Params),
			)
		default:
			log.Warnf("Skipping task %q: unsupported type %q", t.Name, t.Type)
			continue
		}

		tasks = append(tasks, domain.ScheduledTask{Name: t.Name, Schedule: t.Schedule, Task: task})
	}

	if cfg.Retention.Enabled {
		store, err := storeFor(cfg.Retention.Bucket)
		if err != nil {
			return nil, fmt.Errorf("retention: %w", err)
		}
		tasks = append(tasks, domain.ScheduledTask{
			Name:     "retention-sweep",
			Schedule: cfg.Retention.Schedule,
			Task: usecase.NewRetention(
				store, cfg.Retention.Prefix, cfg.Retention.Days, log,
			),
		})
	}

	if len(tasks) == 0 {
		return nil, fmt.Errorf("no enabled tasks found")
	}

	return &App{
		config:    cfg,
		logger:    log,
		scheduler: scheduler.New(),
		notifier:  notifier,
		tasks:     tasks,
	}, nil
}

func loadAWSConfig(cfg *config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWS.Region),
	}
	if cfg.AWS.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWS.AccessKey, cfg.AWS.SecretKey, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(context.Background(), opts...)
}

func connSpec(ref config.ConnRef) usecase.ConnSpec {
	return usecase.ConnSpec{
		SecretName: ref.SecretName,
		Overrides: domain.ConnectionOverrides{
			Host:     ref.Host,
			Database: ref.Database,
		},
	}
}

func toArgs(params []string) []any {
	if len(params) == 0 {
		return nil
	}
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p
	}
	return args
}

// Run schedules every task and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	for _, t := range a.tasks {
		a.logger.Infof("Scheduling task %q: %s", t.Name, t.Schedule)
		if err := a.scheduler.AddJob(t.Schedule, a.runner(t)); err != nil {
			return fmt.Errorf("failed to schedule task %q: %w", t.Name, err)
		}
	}

	a.scheduler.Start()
	a.logger.Infof("Scheduler started successfully")

	<-ctx.Done()
	return nil
}

// RunOnce executes every task a single time, in configuration order.
// The first failure stops the run.
func (a *App) RunOnce(ctx context.Context) error {
	for _, t := range a.tasks {
		if err := a.runner(t)(ctx); err != nil {
			return fmt.Errorf("task %q: %w", t.Name, err)
		}
	}
	return nil
}

func (a *App) runner(t domain.ScheduledTask) func(context.Context) error {
	return func(ctx context.Context) error {
		a.logger.Infof("[%s] Starting task", t.Name)

		err := t.Task.Execute(ctx)
		if err != nil {
			a.logger.Errorf("[%s] Task failed: %v", t.Name, err)
			a.notify(ctx, fmt.Sprintf("Task %s failed: %v", t.Name, err))
			return err
		}

		a.logger.Infof("[%s] Task completed", t.Name)
		a.notify(ctx, fmt.Sprintf("Task %s completed", t.Name))
		return nil
	}
}

func (a *App) notify(ctx context.Context, message string) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Notify(ctx, message); err != nil {
		a.logger.Warnf("Notification failed: %v", err)
	}
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down application...")
	a.scheduler.Stop()
	a.logger.Close()
}

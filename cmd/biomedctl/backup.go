package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/klauspost/compress/gzip"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"biomed-search/config"
	"biomed-search/storage"
)

type backupConfig struct {
	Bucket    string `envconfig:"BACKUP_S3_BUCKET" required:"true"`
	Endpoint  string `envconfig:"BACKUP_S3_ENDPOINT" required:"true"`
	AccessKey string `envconfig:"BACKUP_S3_ACCESS_KEY" required:"true"`
	SecretKey string `envconfig:"BACKUP_S3_SECRET_KEY" required:"true"`
	Region    string `envconfig:"BACKUP_S3_REGION" default:"us-east-1"`
	Prefix    string `envconfig:"BACKUP_PREFIX" default:"backups/"`
	Keep      int    `envconfig:"KEEP_BACKUPS" default:"4"`
}

// backupStore ist der Teil von storage.Bucket, den das Backup braucht.
type backupStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	List(ctx context.Context, prefix string) ([]storage.Object, error)
	Delete(ctx context.Context, key string) error
}

// BackupCommand sichert die Datenbank, lädt den Dump gzip-komprimiert nach S3 und rotiert alte Dumps.
func BackupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Dump the database to S3 and keep the newest KEEP_BACKUPS dumps",
		Action: func(ctx context.Context, c *cli.Command) error {
			logger, err := newLogger(c.Bool("debug"))
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			var bcfg backupConfig
			if err := envconfig.Process("", &bcfg); err != nil {
				return fmt.Errorf("loading backup config: %w", err)
			}
			bucket, err := storage.NewBucket(ctx, storage.Options{
				URL:    bcfg.Endpoint,
				Region: bcfg.Region,
				Key:    bcfg.AccessKey,
				Secret: bcfg.SecretKey,
				Bucket: bcfg.Bucket,
			})
			if err != nil {
				return fmt.Errorf("creating S3 client: %w", err)
			}

			logger.Info("Starting database dump...")
			dump, err := dumpDatabase(ctx, cfg)
			if err != nil {
				return fmt.Errorf("creating dump: %w", err)
			}
			return runBackup(ctx, bucket, bcfg, dump, time.Now(), logger)
		},
	}
}

func runBackup(ctx context.Context, store backupStore, bcfg backupConfig, dump []byte, now time.Time, logger *zap.Logger) error {
	key := backupKey(bcfg.Prefix, now)
	if _, err := store.Upload(ctx, key, dump, "application/gzip"); err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	logger.Info("Backup uploaded", zap.String("bucket", bcfg.Bucket), zap.String("key", key), zap.Int("bytes", len(dump)))

	deleted, err := rotateBackups(ctx, store, bcfg.Prefix, bcfg.Keep, logger)
	if err != nil {
		return fmt.Errorf("rotating backups: %w", err)
	}
	logger.Info("Backup finished", zap.Int("deleted", deleted))
	return nil
}

func backupKey(prefix string, now time.Time) string {
	return fmt.Sprintf("%sbackup-%s.sql.gz", prefix, now.UTC().Format("2006-01-02T15-04-05Z"))
}

// pgDumpCommand liefert die pg_dump-Argumente und zusätzliche Umgebungsvariablen. Das Passwort
// geht über PGPASSWORD statt über die Kommandozeile.
func pgDumpCommand(cfg *config.Config) ([]string, []string) {
	if cfg.DatabaseURL != "" {
		return []string{"--dbname", cfg.DatabaseURL, "-w"}, nil
	}
	args := []string{
		"-h", cfg.DBHost,
		"-p", strconv.Itoa(cfg.DBPort),
		"-U", cfg.DBUser,
		"-d", cfg.DBName,
		"-w",
	}
	return args, []string{"PGPASSWORD=" + cfg.DBPassword}
}

func dumpDatabase(ctx context.Context, cfg *config.Config) ([]byte, error) {
	args, extraEnv := pgDumpCommand(cfg)
	cmd := exec.CommandContext(ctx, "pg_dump", args...)
	cmd.Env = append(os.Environ(), extraEnv...)
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	data, err := compress(stdout)
	if err != nil {
		_ = cmd.Wait()
		return nil, err
	}
	if err := cmd.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func compress(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(zw, r); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rotateBackups löscht unter prefix alle Dumps bis auf die neuesten keep. Fehlgeschlagene Löschungen
// werden geloggt und brechen die Rotation nicht ab.
func rotateBackups(ctx context.Context, store backupStore, prefix string, keep int, logger *zap.Logger) (int, error) {
	objects, err := store.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	storage.SortNewestFirst(objects)
	expired := storage.Expired(objects, keep)
	if len(expired) == 0 {
		logger.Info("No rotation needed", zap.Int("backups", len(objects)), zap.Int("keep", keep))
		return 0, nil
	}

	deleted := 0
	for _, obj := range expired {
		logger.Info("Deleting old backup", zap.String("key", obj.Key))
		if err := store.Delete(ctx, obj.Key); err != nil {
			logger.Warn("Failed to delete backup", zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		deleted++
	}
	return deleted, nil
}

package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"akut-backend/config"
	"akut-backend/logging"
	"akut-backend/models"
	"akut-backend/storage"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	src := flag.String("src", "./data", "directory holding decision-trees/ and the hazard catalog")
	concurrency := flag.Int("concurrency", 8, "parallel uploads")
	dryRun := flag.Bool("dry-run", false, "validate files without uploading")
	prune := flag.Bool("prune", false, "delete stored trees that are not in the source directory")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		_ = godotenv.Load("../../.env")
	}
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Storage.Type == storage.StorageTypeLocal {
		abs, _ := filepath.Abs(*src)
		dst, _ := filepath.Abs(cfg.Storage.LocalPath)
		if abs == dst && !*dryRun {
			logger.Info("Source is the local storage root, nothing to upload", zap.String("path", abs))
			return
		}
	}

	files, err := collectFiles(*src, cfg.TreePrefix, cfg.HazardMetaKey)
	if err != nil {
		logger.Fatal("Failed to collect files", zap.String("src", *src), zap.Error(err))
	}
	logger.Info("Collected files", zap.Int("count", len(files)))

	var store storage.Storage
	if !*dryRun {
		store, err = storage.NewStorage(cfg.Storage)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*concurrency)
	for _, f := range files {
		f := f
		g.Go(func() error {
			data, err := os.ReadFile(f.path)
			if err != nil {
				return err
			}
			if f.tree {
				if _, err := models.ParseDecisionTree(f.key, data); err != nil {
					return fmt.Errorf("%s: %w", f.path, err)
				}
			}
			if *dryRun {
				logger.Info("Validated", zap.String("key", f.key))
				return nil
			}
			if err := store.Upload(ctx, f.key, bytes.NewReader(data)); err != nil {
				return fmt.Errorf("upload %s: %w", f.key, err)
			}
			logger.Info("Uploaded", zap.String("key", f.key), zap.Int("bytes", len(data)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Fatal("Upload failed", zap.Error(err))
	}

	if *prune && !*dryRun {
		ctx := context.Background()
		existing, err := store.List(ctx, cfg.TreePrefix)
		if err != nil {
			logger.Fatal("Failed to list stored trees", zap.Error(err))
		}
		for _, key := range staleKeys(existing, files) {
			if err := store.Delete(ctx, key); err != nil {
				logger.Fatal("Failed to delete stale tree", zap.String("key", key), zap.Error(err))
			}
			logger.Info("Deleted stale tree", zap.String("key", key))
		}
	}
	logger.Info("Done", zap.Int("files", len(files)), zap.Bool("dry_run", *dryRun))
}

type sourceFile struct {
	path string
	key  string
	tree bool
}

// staleKeys returns the stored tree keys that have no source file
func staleKeys(existing []string, files []sourceFile) []string {
	keep := make(map[string]bool, len(files))
	for _, f := range files {
		keep[f.key] = true
	}
	var stale []string
	for _, key := range existing {
		switch strings.ToLower(path.Ext(key)) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		if !keep[key] {
			stale = append(stale, key)
		}
	}
	return stale
}

// collectFiles finds tree documents below src/treePrefix and the catalog at src/metaKey
func collectFiles(src, treePrefix, metaKey string) ([]sourceFile, error) {
	var files []sourceFile

	treeDir := filepath.Join(src, filepath.FromSlash(treePrefix))
	err := filepath.WalkDir(treeDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".json", ".yaml", ".yml":
		default:
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		files = append(files, sourceFile{path: p, key: filepath.ToSlash(rel), tree: true})
		return nil
	})
	if err != nil {
		return nil, err
	}

	metaPath := filepath.Join(src, filepath.FromSlash(metaKey))
	if _, err := os.Stat(metaPath); err == nil {
		files = append(files, sourceFile{path: metaPath, key: metaKey})
	}
	return files, nil
}

package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	es8 "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
)

var DebugLog func(string, ...interface{})

type Config struct {
	URL       string
	Username  string
	Password  string
	Index     string
	Transport http.RoundTripper
}

type Client struct {
	es    *es8.Client
	index string
}

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("elasticsearch URL is required")
	}
	index := cfg.Index
	if strings.TrimSpace(index) == "" {
		index = "dreambooth_configs"
	}

	es, err := es8.NewClient(es8.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	// Lightweight ping
	if _, err := es.Info(); err != nil {
		return nil, fmt.Errorf("failed to connect to elasticsearch: %w", err)
	}

	return &Client{es: es, index: index}, nil
}

// snapshotDoc wraps one config file with enough metadata to search across
// models.
type snapshotDoc struct {
	ModelName string                 `json:"model_name"`
	File      string                 `json:"file"`
	Backup    bool                   `json:"backup"`
	Config    map[string]interface{} `json:"config"`
}

// IndexModelSnapshots bulk-indexes a model's current db_config.json plus
// every backup snapshot under <model_dir>/backups/. Returns the number of
// indexed documents.
func (c *Client) IndexModelSnapshots(ctx context.Context, modelName, modelDir string) (int, error) {
	files := []string{filepath.Join(modelDir, "db_config.json")}
	backups, err := filepath.Glob(filepath.Join(modelDir, "backups", "db_config_*.json"))
	if err == nil {
		sort.Strings(backups)
		files = append(files, backups...)
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     c.es,
		Index:      c.index,
		NumWorkers: 4,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	indexed := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return indexed, fmt.Errorf("failed to read snapshot %s: %w", file, err)
		}

		var cfg map[string]interface{}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return indexed, fmt.Errorf("failed to parse snapshot %s: %w", file, err)
		}

		doc := snapshotDoc{
			ModelName: modelName,
			File:      filepath.Base(file),
			Backup:    strings.Contains(file, "backups"),
			Config:    cfg,
		}
		body, err := json.Marshal(doc)
		if err != nil {
			return indexed, fmt.Errorf("failed to encode snapshot doc: %w", err)
		}

		item := esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: fmt.Sprintf("%s-%s", modelName, filepath.Base(file)),
			Body:       bytes.NewReader(body),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, resp esutil.BulkIndexerResponseItem, err error) {
				if DebugLog != nil {
					DebugLog("failed to index %s: %s %s", item.DocumentID, resp.Error.Type, resp.Error.Reason)
				}
			},
		}
		if err := bi.Add(ctx, item); err != nil {
			return indexed, fmt.Errorf("bulk add failed: %w", err)
		}
		indexed++
	}

	if err := bi.Close(ctx); err != nil {
		return indexed, fmt.Errorf("bulk indexer close failed: %w", err)
	}

	// Items rejected by the cluster surface only in the indexer stats, so
	// the count reports successes, not submissions.
	if failed := bi.Stats().NumFailed; failed > 0 {
		return indexed - int(failed), fmt.Errorf("%d of %d snapshot(s) failed to index", failed, indexed)
	}

	return indexed, nil
}

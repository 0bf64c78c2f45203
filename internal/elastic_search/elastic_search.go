package elastic_search

import (
	"context"
	"errors"
	"fmt"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/config"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/log"
	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
	"github.com/olivere/elastic/v7"
	"github.com/patrickmn/go-cache"
	"github.com/sha1sum/aws_signing_client"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrTooManyAttempts = errors.New("too many attempts")

type Index interface {
	GetClient() *elastic.Client

	InstallMappings() error

	AddIndexRequest(index string, entity entity.Entity, reqAction RequestAction)
	AddUpdateRequest(index string, entity entity.Entity, reqAction RequestAction)

	Persist() (int, error)
}

type index struct {
	client    *elastic.Client
	cache     *cache.Cache
	refresh   string
	bulkCount int
	retryWait time.Duration
}

type Request struct {
	Index  string
	Entity entity.Entity
	Type   RequestType
	Action RequestAction
}

type RequestType string

const (
	IndexRequest  RequestType = "index"
	UpdateRequest RequestType = "update"
)

type RequestAction string

const (
	ListingCreate RequestAction = "ListingCreate"
	ListingSold   RequestAction = "ListingSold"
	ListingCancel RequestAction = "ListingCancel"

	ExchangeAction RequestAction = "ExchangeAction"
)

const saveAttempts int = 3

func New(cfg config.ElasticSearchConfig, aws config.AwsConfig) (Index, error) {
	client, err := newClient(cfg, aws)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("ElasticSearch: Failed to create client")
		return nil, err
	}

	return newIndex(client, cfg.Refresh, cfg.BulkPersistCount), nil
}

func newIndex(client *elastic.Client, refresh string, bulkCount int) index {
	if bulkCount <= 0 {
		bulkCount = 100
	}

	return index{
		client:    client,
		cache:     cache.New(cache.NoExpiration, 10*time.Minute),
		refresh:   refresh,
		bulkCount: bulkCount,
		retryWait: time.Second,
	}
}

func newClient(cfg config.ElasticSearchConfig, aws config.AwsConfig) (*elastic.Client, error) {
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(strings.Join(cfg.Hosts, ",")),
		elastic.SetSniff(cfg.Sniff),
		elastic.SetHealthcheck(cfg.HealthCheck),
		elastic.SetErrorLog(log.ElasticLogger{Level: zapcore.ErrorLevel}),
	}

	if cfg.Debug {
		opts = append(opts, elastic.SetTraceLog(log.ElasticLogger{Level: zapcore.DebugLevel}))
	}

	if cfg.Aws {
		creds := credentials.NewStaticCredentials(aws.AccessKey, aws.SecretKey, aws.Token)
		awsClient, err := aws_signing_client.New(v4.NewSigner(creds), nil, "es", aws.Region)
		if err != nil {
			return nil, err
		}

		opts = append(opts, elastic.SetHttpClient(awsClient))
		opts = append(opts, elastic.SetScheme("https"))
		return elastic.NewClient(opts...)
	}

	if cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}

	return elastic.NewClient(opts...)
}

func (i index) GetClient() *elastic.Client {
	return i.client
}

// InstallMappings creates one index per json file in the mapping directory, named
// after the file.
func (i index) InstallMappings() error {
	zap.L().Info("ElasticSearch: Install Mappings")

	dir := config.Get().ElasticSearch.MappingDir
	files, err := os.ReadDir(dir)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("dir", dir)).Error("ElasticSearch: Elastic mappings directory error")
		return err
	}

	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}

		b, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			zap.L().With(zap.Error(err), zap.String("file", f.Name())).Error("ElasticSearch: Elastic mappings file error")
			return err
		}

		name := Indices(strings.TrimSuffix(f.Name(), filepath.Ext(f.Name())))
		if err = i.createIndex(name.Get(), b); err != nil {
			zap.L().With(zap.Error(err), zap.String("index", name.Get())).Error("ElasticSearch: Failed to create index")
			return err
		}
	}

	return nil
}

func (i index) createIndex(index string, mapping []byte) error {
	ctx := context.Background()
	client := i.client

	exists, err := client.IndexExists(index).Do(ctx)
	if err != nil {
		return err
	}

	if exists && config.Get().Reindex {
		zap.S().Infof("ElasticSearch: Deleting index %s", index)
		_, err = client.DeleteIndex(index).Do(ctx)
		if err != nil {
			return err
		}
		exists = false
	}

	if !exists {
		createIndex, err := client.CreateIndex(index).BodyString(string(mapping)).Do(ctx)
		if err != nil {
			return err
		}

		if createIndex.Acknowledged {
			zap.S().Infof("ElasticSearch: Created index %s", index)
		}
	}

	return nil
}

func (i index) AddIndexRequest(index string, entity entity.Entity, reqAction RequestAction) {
	zap.L().With(
		zap.String("index", index),
		zap.String("slug", entity.Slug()),
		zap.String("action", string(reqAction)),
	).Debug("ElasticSearch: AddIndexRequest")

	i.addRequest(index, entity, IndexRequest, reqAction)
}

func (i index) AddUpdateRequest(index string, entity entity.Entity, reqAction RequestAction) {
	zap.L().With(
		zap.String("index", index),
		zap.String("slug", entity.Slug()),
		zap.String("action", string(reqAction)),
	).Debug("ElasticSearch: AddUpdateRequest")

	if cached, found := i.cache.Get(entity.Slug()); found {
		entity = mergeRequests(index, cached.(Request), reqAction, entity)
		if cached.(Request).Type == IndexRequest {
			i.addRequest(index, entity, IndexRequest, reqAction)
			return
		}
	}

	i.addRequest(index, entity, UpdateRequest, reqAction)
}

func (i index) addRequest(index string, entity entity.Entity, reqType RequestType, reqAction RequestAction) {
	i.cache.Set(entity.Slug(), Request{index, entity, reqType, reqAction}, cache.DefaultExpiration)
}

func (i index) getRequests() []Request {
	requests := make([]Request, 0)

	for _, item := range i.cache.Items() {
		requests = append(requests, item.Object.(Request))
	}

	return requests
}

func (i index) getRequest(id string) *Request {
	if item, found := i.cache.Get(id); found {
		req := item.(Request)
		return &req
	}

	return nil
}

func (i index) save(index string, entity entity.Entity, attempt int) error {
	if attempt > saveAttempts {
		zap.L().With(zap.String("index", index), zap.String("slug", entity.Slug())).
			Error("ElasticSearch: Failed to save entity, Too many attempts")
		return fmt.Errorf("%w: %s", ErrTooManyAttempts, entity.Slug())
	}

	_, err := i.client.Index().
		Index(index).
		Id(entity.Slug()).
		BodyJson(entity).
		Do(context.Background())

	if err != nil {
		zap.L().With(zap.Error(err), zap.String("index", index), zap.String("slug", entity.Slug())).
			Warn("ElasticSearch: Failed to save entity")
		time.Sleep(time.Duration(attempt) * i.retryWait)

		return i.save(index, entity, attempt+1)
	}

	return nil
}

// Persist writes the pending requests in bulk and returns how many were sent. On
// failure every pending request is kept so the next Persist sends it again.
func (i index) Persist() (int, error) {
	requests := i.getRequests()
	if len(requests) == 0 {
		return 0, nil
	}

	bulk := i.client.Bulk()
	for _, r := range requests {
		if r.Type == IndexRequest {
			bulk.Add(elastic.NewBulkIndexRequest().Index(r.Index).Id(r.Entity.Slug()).Doc(r.Entity))
		} else if r.Type == UpdateRequest {
			bulk.Add(elastic.NewBulkUpdateRequest().Index(r.Index).Id(r.Entity.Slug()).Doc(r.Entity))
		}

		if bulk.NumberOfActions() >= i.bulkCount {
			if err := i.persist(bulk, 1); err != nil {
				return 0, err
			}
			bulk = i.client.Bulk()
		}
	}

	if bulk.NumberOfActions() != 0 {
		if err := i.persist(bulk, 1); err != nil {
			return 0, err
		}
	}

	i.forget(requests)

	return len(requests), nil
}

func (i index) persist(bulk *elastic.BulkService, attempt int) error {
	actions := bulk.NumberOfActions()
	zap.S().Debugf("ElasticSearch: Persisting %d actions", actions)

	response, err := bulk.Refresh(i.refresh).Do(context.Background())
	if err != nil {
		if attempt < saveAttempts {
			zap.L().With(zap.Error(err), zap.Int("attempt", attempt)).Warn("ElasticSearch: Bulk request failed. Retrying...")
			time.Sleep(time.Duration(attempt) * i.retryWait)
			return i.persist(bulk, attempt+1)
		}
		zap.L().With(zap.Error(err), zap.Int("actions", actions)).Error("ElasticSearch: Failed to persist requests")
		return fmt.Errorf("%w: %v", ErrTooManyAttempts, err)
	}

	for _, failed := range response.Failed() {
		zap.L().With(
			zap.Any("error", failed.Error),
			zap.String("index", failed.Index),
			zap.String("id", failed.Id),
		).Error("ElasticSearch: Failed to persist request. Retrying...")

		if req := i.getRequest(failed.Id); req != nil {
			if err := i.save(failed.Index, req.Entity, 1); err != nil {
				return err
			}
		}
	}

	return nil
}

func (i index) forget(requests []Request) {
	zap.L().With(zap.Int("requests", len(requests))).Debug("ElasticSearch: Clearing persisted requests")
	for _, r := range requests {
		i.cache.Delete(r.Entity.Slug())
	}
}

package repository

import (
	"context"
	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"
	"time"
)

const searchAttempts = 3

func search(searchService *elastic.SearchService) (*elastic.SearchResult, error) {
	return searchWithRetry(searchService, 1)
}

func searchWithRetry(searchService *elastic.SearchService, attempt int) (*elastic.SearchResult, error) {
	result, err := searchService.Do(context.Background())
	if err != nil && elastic.IsStatusCode(err, 429) && attempt < searchAttempts {
		zap.L().With(zap.Int("attempt", attempt)).Warn("Elastic: 429 (Too Many Requests)")
		time.Sleep(time.Duration(attempt) * time.Second)
		return searchWithRetry(searchService, attempt+1)
	}

	return result, err
}
